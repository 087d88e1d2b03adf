package protocol_test

import (
	"encoding/binary"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/protocol"
)

var _ = Describe("Writer", func() {
	Describe("Uint16 / Uint32", func() {
		It("writes in the requested byte order", func() {
			w := protocol.NewWriter().
				Uint16(binary.LittleEndian, 0x0102).
				Uint16(binary.BigEndian, 0x0102).
				Uint32(binary.LittleEndian, 0x01020304).
				Uint32(binary.BigEndian, 0x01020304)

			Expect(w.Bytes()).To(Equal([]byte{
				0x02, 0x01,
				0x01, 0x02,
				0x04, 0x03, 0x02, 0x01,
				0x01, 0x02, 0x03, 0x04,
			}))
		})
	})

	Describe("String", func() {
		It("prefixes the length", func() {
			w := protocol.NewWriter().String("abcd")
			Expect(w.Bytes()).To(Equal([]byte{4, 0, 0, 0, 'a', 'b', 'c', 'd'}))
		})

		It("pads the content to four bytes", func() {
			w := protocol.NewWriter().String("abcde")
			Expect(w.Bytes()).To(Equal([]byte{5, 0, 0, 0, 'a', 'b', 'c', 'd', 'e', 0, 0, 0}))
		})

		It("writes nothing but the prefix for an empty string", func() {
			w := protocol.NewWriter().String("")
			Expect(w.Bytes()).To(Equal([]byte{0, 0, 0, 0}))
		})
	})

	Describe("WideString", func() {
		It("flags the length and counts characters", func() {
			w := protocol.NewWriter().WideString("ab")
			Expect(w.Bytes()).To(Equal([]byte{2, 0, 0, 0x80, 'a', 0, 'b', 0}))
		})

		It("pads odd character counts", func() {
			w := protocol.NewWriter().WideString("abc")
			Expect(w.Len()).To(Equal(4 + 8))
		})
	})

	Describe("Array", func() {
		It("prefixes the count and pads", func() {
			w := protocol.NewWriter().Array([]byte{9, 8, 7})
			Expect(w.Bytes()).To(Equal([]byte{3, 0, 0, 0, 9, 8, 7, 0}))
		})
	})

	Describe("DateTime", func() {
		It("writes eight fields with a zero seconds slot", func() {
			t := time.Date(2024, time.March, 5, 13, 45, 30, 250*int(time.Millisecond), time.Local)
			w := protocol.NewWriter().DateTime(t)

			Expect(w.Len()).To(Equal(16))

			r := protocol.NewReader(w.Bytes())
			fields := make([]uint16, 8)
			for i := range fields {
				fields[i] = r.Uint16(binary.LittleEndian)
			}

			Expect(fields).To(Equal([]uint16{2024, 3, uint16(time.Tuesday), 5, 13, 45, 0, 250}))
		})
	})
})

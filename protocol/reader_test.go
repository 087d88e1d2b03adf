package protocol_test

import (
	"encoding/binary"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/protocol"
)

var _ = Describe("Reader", func() {
	Describe("Align4()", func() {
		It("leaves multiples of four alone", func() {
			Expect(protocol.Align4(0)).To(Equal(0))
			Expect(protocol.Align4(8)).To(Equal(8))
		})

		It("rounds everything else up", func() {
			Expect(protocol.Align4(1)).To(Equal(4))
			Expect(protocol.Align4(6)).To(Equal(8))
			Expect(protocol.Align4(25)).To(Equal(28))
		})
	})

	It("reads mixed byte orders field by field", func() {
		r := protocol.NewReader([]byte{
			0xff,
			0x02, 0x01,
			0x01, 0x02,
			0xfe, 0xff, 0xff, 0xff,
		})

		Expect(r.Int8()).To(Equal(int8(-1)))
		Expect(r.Uint16(binary.LittleEndian)).To(Equal(uint16(0x0102)))
		Expect(r.Uint16(binary.BigEndian)).To(Equal(uint16(0x0102)))
		Expect(r.Int32(binary.LittleEndian)).To(Equal(int32(-2)))
		Expect(r.Remaining()).To(Equal(0))
		Expect(r.Err()).To(Succeed())
	})

	It("fails with a malformed message when reading past the end", func() {
		r := protocol.NewReader([]byte{1, 2})

		Expect(r.Uint32(binary.LittleEndian)).To(BeZero())
		Expect(errors.Is(r.Err(), protocol.ErrMalformed)).To(BeTrue())

		// Later reads keep failing without moving
		Expect(r.Uint8()).To(BeZero())
		Expect(r.Pos()).To(Equal(0))
	})

	Describe("String", func() {
		It("decodes the version string without padding", func() {
			payload := protocol.NewWriter().String("POOL: 5.2 Build 736.0 Rel").Bytes()
			Expect(payload).To(HaveLen(4 + 28))

			r := protocol.NewReader(payload)
			Expect(r.String()).To(Equal("POOL: 5.2 Build 736.0 Rel"))
			Expect(r.Remaining()).To(Equal(0))
		})

		It("strips trailing NULs", func() {
			r := protocol.NewReader([]byte{4, 0, 0, 0, 'a', 'b', 0, 0})
			Expect(r.String()).To(Equal("ab"))
		})

		It("round trips every length up to sixteen in both encodings", func() {
			for n := 0; n <= 16; n++ {
				s := strings.Repeat("é", n/2) + strings.Repeat("x", n-n/2)

				narrow := protocol.NewReader(protocol.NewWriter().String(s).Bytes())
				Expect(narrow.String()).To(Equal(s))
				Expect(narrow.Remaining()).To(Equal(0))

				wide := protocol.NewReader(protocol.NewWriter().WideString(s).Bytes())
				Expect(wide.String()).To(Equal(s))
				Expect(wide.Remaining()).To(Equal(0))
			}
		})

		It("advances past padding so the next field lines up", func() {
			payload := protocol.NewWriter().String("abc").Uint32(binary.LittleEndian, 42).Bytes()

			r := protocol.NewReader(payload)
			Expect(r.String()).To(Equal("abc"))
			Expect(r.Uint32(binary.LittleEndian)).To(Equal(uint32(42)))
		})

		It("rejects a declared length longer than the payload", func() {
			r := protocol.NewReader([]byte{100, 0, 0, 0, 'a'})
			Expect(r.String()).To(BeEmpty())
			Expect(errors.Is(r.Err(), protocol.ErrMalformed)).To(BeTrue())
		})
	})

	Describe("Array", func() {
		It("reads the bytes and skips the padding", func() {
			payload := protocol.NewWriter().Array([]byte{1, 2, 3, 4, 5}).Uint8(7).Bytes()

			r := protocol.NewReader(payload)
			Expect(r.Array()).To(Equal([]byte{1, 2, 3, 4, 5}))
			Expect(r.Uint8()).To(Equal(uint8(7)))
		})
	})

	Describe("DateTime", func() {
		It("ignores the weekday", func() {
			w := protocol.NewWriter()
			for _, f := range []uint16{2023, 12, 6, 31, 23, 59, 0, 999} {
				w.Uint16(binary.LittleEndian, f)
			}

			got := protocol.NewReader(w.Bytes()).DateTime()
			Expect(got).To(Equal(time.Date(2023, time.December, 31, 23, 59, 0, 999*int(time.Millisecond), time.Local)))
		})

		It("round trips through the writer", func() {
			t := time.Date(2022, time.July, 4, 8, 15, 0, 0, time.Local)
			Expect(protocol.NewReader(protocol.NewWriter().DateTime(t).Bytes()).DateTime()).To(Equal(t))
		})
	})
})

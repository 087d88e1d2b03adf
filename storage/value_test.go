package storage_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/storage"
)

var _ = Describe("storage / values", func() {
	It("round trips byte strings", func() {
		encoded := storage.EncodeBytes([]byte{0, 1, 0xfe})
		Expect(encoded).To(Equal("bytes:0001fe"))
		Expect(storage.DecodeValue(encoded)).To(Equal([]byte{0, 1, 0xfe}))
	})

	It("round trips tuples", func() {
		encoded := storage.EncodeTuple(255, -1, 0)
		Expect(encoded).To(Equal("tuple:255,-1,0"))
		Expect(storage.DecodeValue(encoded)).To(Equal([]int64{255, -1, 0}))
	})

	It("leaves plain values alone", func() {
		Expect(storage.DecodeValue("pool")).To(Equal("pool"))
		Expect(storage.DecodeValue(7.5)).To(Equal(7.5))
		Expect(storage.DecodeValue("bytes:zz")).To(Equal("bytes:zz"))
	})
})

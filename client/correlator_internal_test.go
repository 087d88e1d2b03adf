package client

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/protocol"
)

var _ = Describe("Correlator id allocation", func() {
	It("never hands out an id that is still pending, across the wrap", func() {
		c := NewCorrelator(CorrelatorOptions{})

		held := make([]*transaction, 0, protocol.MaxClientID+1)
		for i := 0; i <= protocol.MaxClientID; i++ {
			tx, err := c.register(protocol.CodePing)
			Expect(err).To(Succeed())
			Expect(tx.id).To(BeNumerically("<=", protocol.MaxClientID))
			held = append(held, tx)
		}

		Expect(c.Pending()).To(Equal(protocol.MaxClientID + 1))

		_, err := c.register(protocol.CodePing)
		Expect(errors.Is(err, protocol.ErrConnection)).To(BeTrue())

		c.remove(held[5])

		tx, err := c.register(protocol.CodePing)
		Expect(err).To(Succeed())
		Expect(tx.id).To(Equal(uint16(5)))
	})

	It("wraps back to zero after the last client id", func() {
		c := NewCorrelator(CorrelatorOptions{})
		c.nextID = protocol.MaxClientID

		last, err := c.register(protocol.CodePing)
		Expect(err).To(Succeed())
		Expect(last.id).To(Equal(uint16(protocol.MaxClientID)))

		first, err := c.register(protocol.CodePing)
		Expect(err).To(Succeed())
		Expect(first.id).To(Equal(uint16(0)))
	})

	It("does not let a stale removal drop a reused id", func() {
		c := NewCorrelator(CorrelatorOptions{})

		old, err := c.register(protocol.CodePing)
		Expect(err).To(Succeed())
		Expect(c.Claim(protocol.Message{ID: old.id, Code: protocol.CodePing.Response()})).To(BeTrue())

		c.nextID = old.id
		reused, err := c.register(protocol.CodePing)
		Expect(err).To(Succeed())
		Expect(reused.id).To(Equal(old.id))

		c.remove(old)
		Expect(c.Pending()).To(Equal(1))
	})
})

package protocol_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/protocol"
)

var _ = Describe("Message", func() {
	It("marshals a little-endian header", func() {
		msg := protocol.Message{ID: 0x0102, Code: protocol.CodeVersion, Payload: []byte{1, 2, 3}}

		Expect(msg.Marshal()).To(Equal([]byte{
			0x02, 0x01,
			0xb8, 0x1f,
			3, 0, 0, 0,
			1, 2, 3,
		}))
	})

	It("unmarshals what it marshals", func() {
		msg := protocol.Message{ID: 7, Code: protocol.CodePoolStatus, Payload: []byte{0, 0, 0, 0}}

		got, err := protocol.Unmarshal(msg.Marshal())
		Expect(err).To(Succeed())
		Expect(got).To(Equal(msg))
	})

	It("rejects a length mismatch", func() {
		raw := protocol.Message{Code: protocol.CodePing, Payload: []byte{1}}.Marshal()

		_, err := protocol.Unmarshal(raw[:len(raw)-1])
		Expect(errors.Is(err, protocol.ErrMalformed)).To(BeTrue())
	})

	It("rejects absurd payload lengths in the header", func() {
		_, err := protocol.PeekHeader([]byte{0, 0, 16, 0, 0xff, 0xff, 0xff, 0x7f})
		Expect(errors.Is(err, protocol.ErrMalformed)).To(BeTrue())
	})

	Describe("Code", func() {
		It("names requests, responses and unknown codes", func() {
			Expect(protocol.CodeVersion.String()).To(Equal("Version"))
			Expect(protocol.CodeVersion.Response().String()).To(Equal("VersionResponse"))
			Expect(protocol.Code(4).String()).To(Equal("Code(4)"))
		})

		It("distinguishes the error replies", func() {
			Expect(protocol.CodeLoginRejected.IsError()).To(BeTrue())
			Expect(protocol.CodeInvalidRequest.IsError()).To(BeTrue())
			Expect(protocol.CodeBadParameter.IsError()).To(BeTrue())
			Expect(protocol.CodePing.IsError()).To(BeFalse())
		})
	})

	Describe("ErrorForCode()", func() {
		It("maps the error replies onto the taxonomy", func() {
			Expect(errors.Is(protocol.ErrorForCode(protocol.CodeLoginRejected), protocol.ErrLogin)).To(BeTrue())
			Expect(errors.Is(protocol.ErrorForCode(protocol.CodeInvalidRequest), protocol.ErrRequest)).To(BeTrue())
			Expect(errors.Is(protocol.ErrorForCode(protocol.CodeBadParameter), protocol.ErrRequest)).To(BeTrue())
			Expect(protocol.ErrorForCode(protocol.CodePing.Response())).To(BeNil())
		})

		It("only retries what can succeed later", func() {
			Expect(protocol.Retryable(protocol.ErrTimeout)).To(BeTrue())
			Expect(protocol.Retryable(protocol.ErrorForCode(protocol.CodeBadParameter))).To(BeTrue())
			Expect(protocol.Retryable(protocol.ErrLogin)).To(BeFalse())
			Expect(protocol.Retryable(protocol.ErrMalformed)).To(BeFalse())
			Expect(protocol.Retryable(protocol.ErrClosed)).To(BeTrue())
			Expect(protocol.Retryable(protocol.ErrClientClosed)).To(BeFalse())
			Expect(errors.Is(protocol.ErrClientClosed, protocol.ErrConnection)).To(BeTrue())
		})
	})
})

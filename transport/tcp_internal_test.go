package transport

import (
	"fmt"
	"net"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/protocol"
)

var _ = Describe("TCPConn teardown", func() {
	var (
		conn   *TCPConn
		remote net.Conn
		closes chan error
	)

	BeforeEach(func() {
		var local net.Conn
		local, remote = net.Pipe()
		closes = make(chan error, 2)

		conn = NewTCPConn(local, Options{OnClose: func(err error) { closes <- err }})
	})

	AfterEach(func() {
		_ = remote.Close()
	})

	It("keeps the failure when Close races an unexpected loss", func() {
		loss := fmt.Errorf("gateway closed the connection: %w", protocol.ErrConnection)

		conn.shutdown(loss)
		Expect(conn.Close()).To(Succeed())

		Expect(closes).To(Receive(MatchError(loss)))
		Expect(closes).NotTo(Receive())
	})

	It("discards a partial message", func() {
		header := protocol.Message{ID: 1, Code: protocol.CodePing, Payload: make([]byte, 8)}.Marshal()

		// a pipe write returns once the read loop has taken the bytes
		_, err := remote.Write(header[:protocol.HeaderSize+2])
		Expect(err).To(Succeed())

		Expect(conn.Close()).To(Succeed())
		Expect(closes).To(Receive(BeNil()))
		Expect(conn.framer.Buffered()).To(BeZero())
	})
})

package transport_test

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
	"github.com/luma/lagoon/transport"
)

func sampleMessages() []protocol.Message {
	s := catalog.SampleState()
	status, _ := catalog.Lookup(protocol.CodeStatusChanged)
	chemistry, _ := catalog.Lookup(protocol.CodeChemistryData)

	return []protocol.Message{
		{ID: 1, Code: protocol.CodePing.Response(), Payload: []byte{}},
		{ID: 0, Code: protocol.CodeStatusChanged, Payload: catalog.Encode(status, s)},
		{ID: 2, Code: protocol.CodeVersion.Response(), Payload: protocol.NewWriter().String("POOL: 5.2 Build 736.0 Rel").Bytes()},
		{ID: 3, Code: protocol.CodeChemistryData.Response(), Payload: catalog.Encode(chemistry, s)},
		{ID: 4, Code: protocol.Code(4242), Payload: []byte{9, 9, 9}},
	}
}

func concat(messages []protocol.Message) []byte {
	var raw []byte
	for _, msg := range messages {
		raw = append(raw, msg.Marshal()...)
	}

	return raw
}

func feedAll(f *transport.Framer, chunks [][]byte) []protocol.Message {
	var got []protocol.Message
	for _, chunk := range chunks {
		messages, err := f.Feed(chunk)
		Expect(err).To(Succeed())
		got = append(got, messages...)
	}

	return got
}

var _ = Describe("Framer", func() {
	It("yields several messages from one chunk", func() {
		want := sampleMessages()

		var f transport.Framer
		Expect(feedAll(&f, [][]byte{concat(want)})).To(Equal(want))
		Expect(f.Buffered()).To(BeZero())
	})

	It("reassembles a message delivered a byte at a time", func() {
		want := sampleMessages()[2:3]
		raw := concat(want)

		chunks := make([][]byte, len(raw))
		for i := range raw {
			chunks[i] = raw[i : i+1]
		}

		var f transport.Framer
		Expect(feedAll(&f, chunks)).To(Equal(want))
	})

	It("frames identically for any split of the stream", func() {
		want := sampleMessages()
		raw := concat(want)
		rng := rand.New(rand.NewSource(1))

		for round := 0; round < 200; round++ {
			var chunks [][]byte
			for rest := raw; len(rest) > 0; {
				n := 1 + rng.Intn(len(rest))
				if n > 64 && rng.Intn(2) == 0 {
					n = 1 + rng.Intn(64)
				}

				chunks = append(chunks, rest[:n])
				rest = rest[n:]
			}

			var f transport.Framer
			Expect(feedAll(&f, chunks)).To(Equal(want))
			Expect(f.Buffered()).To(BeZero())
		}
	})

	It("drops a partial message on Reset", func() {
		raw := concat(sampleMessages())

		var f transport.Framer
		messages, err := f.Feed(raw[:protocol.HeaderSize+1])
		Expect(err).To(Succeed())
		Expect(messages).To(BeEmpty())
		Expect(f.Buffered()).To(Equal(protocol.HeaderSize + 1))

		f.Reset()
		Expect(f.Buffered()).To(BeZero())

		Expect(f.Feed(raw)).To(Equal(sampleMessages()))
	})

	It("keeps a large message's tail and the next message apart", func() {
		messages := sampleMessages()
		big := protocol.Message{ID: 9, Code: protocol.CodeControllerConfig.Response(), Payload: make([]byte, 3000)}
		want := []protocol.Message{big, messages[0]}
		raw := concat(want)

		var f transport.Framer
		got := feedAll(&f, [][]byte{raw[:1000], raw[1000:2000], raw[2000:]})
		Expect(got).To(Equal(want))
	})

	It("decodes a split config message like a whole one", func() {
		entry, _ := catalog.Lookup(protocol.CodeControllerConfig)
		payload := catalog.Encode(entry, catalog.SampleState())
		Expect(len(payload)).To(BeNumerically("<=", 592))
		payload = append(payload, make([]byte, 592-len(payload))...)

		raw := protocol.Message{ID: 5, Code: protocol.CodeControllerConfig.Response(), Payload: payload}.Marshal()
		Expect(raw).To(HaveLen(600))

		var f transport.Framer
		first, err := f.Feed(raw[:512])
		Expect(err).To(Succeed())
		Expect(first).To(BeEmpty())

		second, err := f.Feed(raw[512:])
		Expect(err).To(Succeed())
		Expect(second).To(HaveLen(1))

		whole, err := protocol.Unmarshal(raw)
		Expect(err).To(Succeed())

		split := catalog.NewState()
		Expect(catalog.Decode(second[0], split)).To(Succeed())

		direct := catalog.NewState()
		Expect(catalog.Decode(whole, direct)).To(Succeed())

		Expect(split.Circuits).To(Equal(direct.Circuits))
		Expect(split.Colors).To(Equal(direct.Colors))
		Expect(split.Controller).To(Equal(direct.Controller))
	})

	It("fails on a header declaring an absurd length", func() {
		var f transport.Framer
		_, err := f.Feed([]byte{0, 0, 1, 0, 0xff, 0xff, 0xff, 0xff})
		Expect(errors.Is(err, protocol.ErrMalformed)).To(BeTrue())
	})
})

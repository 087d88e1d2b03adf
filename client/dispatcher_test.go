package client_test

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/client"
	"github.com/luma/lagoon/protocol"
)

func statusPush() protocol.Message {
	e, ok := catalog.Lookup(protocol.CodeStatusChanged)
	Expect(ok).To(BeTrue())

	return protocol.NewMessage(protocol.CodeStatusChanged, catalog.Encode(e, catalog.SampleState()))
}

var _ = Describe("Dispatcher", func() {
	var (
		state *catalog.State
		d     *client.Dispatcher
	)

	BeforeEach(func() {
		state = catalog.NewState()
		d = client.NewDispatcher(state, nil, nil)
	})

	AfterEach(func() {
		d.Close()
	})

	It("hands a message to every listener of its code", func() {
		received := make(chan protocol.Message, 2)
		d.Subscribe(protocol.CodeColorUpdate, func(msg protocol.Message) { received <- msg })
		d.Subscribe(protocol.CodeColorUpdate, func(msg protocol.Message) { received <- msg })
		d.Subscribe(protocol.CodeChemistryChanged, func(msg protocol.Message) {
			defer GinkgoRecover()
			Fail("listener of another code was called")
		})

		msg := protocol.NewMessage(protocol.CodeColorUpdate, catalog.EncodeColorUpdate(catalog.ColorUpdate{Mode: 3, Text: "Party"}))
		d.Dispatch(msg)

		Eventually(received).Should(Receive(Equal(msg)))
		Eventually(received).Should(Receive(Equal(msg)))
	})

	It("updates the shared state before calling listeners of a state change", func() {
		temperature := make(chan int32, 1)
		d.Subscribe(protocol.CodeStatusChanged, func(protocol.Message) {
			state.View(func(s *catalog.State) {
				temperature <- s.Bodies[catalog.BodyPool].CurrentTemperature
			})
		})

		d.Dispatch(statusPush())

		Eventually(temperature).Should(Receive(Equal(int32(82))))
	})

	It("updates the state even without listeners", func() {
		d.Dispatch(statusPush())

		state.View(func(s *catalog.State) {
			Expect(s.Controller.AirTemperature).To(Equal(int32(71)))
		})
	})

	It("drops a state change that fails to decode", func() {
		var calls int32
		d.Subscribe(protocol.CodeStatusChanged, func(protocol.Message) { atomic.AddInt32(&calls, 1) })

		d.Dispatch(protocol.NewMessage(protocol.CodeStatusChanged, []byte{1, 2}))

		Consistently(func() int32 { return atomic.LoadInt32(&calls) }, "50ms").Should(BeZero())
	})

	It("stops calling a listener once unsubscribed", func() {
		var calls int32
		unsubscribe := d.Subscribe(protocol.CodeColorUpdate, func(protocol.Message) { atomic.AddInt32(&calls, 1) })
		Expect(d.Len()).To(Equal(1))

		unsubscribe()
		unsubscribe()
		Expect(d.Len()).To(Equal(0))

		d.Dispatch(protocol.NewMessage(protocol.CodeColorUpdate, nil))
		Consistently(func() int32 { return atomic.LoadInt32(&calls) }, "50ms").Should(BeZero())
	})

	It("keeps the code while other listeners remain", func() {
		received := make(chan struct{}, 1)
		first := d.Subscribe(protocol.CodeColorUpdate, func(protocol.Message) {})
		d.Subscribe(protocol.CodeColorUpdate, func(protocol.Message) { received <- struct{}{} })

		first()
		Expect(d.Len()).To(Equal(1))

		d.Dispatch(protocol.NewMessage(protocol.CodeColorUpdate, nil))
		Eventually(received).Should(Receive())
	})

	It("survives a panicking listener", func() {
		received := make(chan struct{}, 1)
		d.Subscribe(protocol.CodeColorUpdate, func(protocol.Message) { panic("boom") })
		d.Subscribe(protocol.CodeWeatherForecastChanged, func(protocol.Message) { received <- struct{}{} })

		d.Dispatch(protocol.NewMessage(protocol.CodeColorUpdate, nil))
		d.Dispatch(protocol.NewMessage(protocol.CodeWeatherForecastChanged, nil))

		Eventually(received).Should(Receive())
	})
})

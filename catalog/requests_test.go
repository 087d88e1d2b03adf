package catalog_test

import (
	"context"
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
	"github.com/luma/lagoon/storage"
)

func isValidationError(err error) bool {
	return errors.Is(err, protocol.ErrValidation)
}

var _ = Describe("Requests", func() {
	It("builds the fixed login", func() {
		msg := catalog.LoginRequest()
		Expect(msg.Code).To(Equal(protocol.CodeLocalLogin))

		r := msg.Reader()
		Expect(r.Uint32(binary.LittleEndian)).To(Equal(uint32(348)))
		Expect(r.Uint32(binary.LittleEndian)).To(Equal(uint32(0)))
		Expect(r.String()).To(Equal("Android"))
		Expect(r.String()).To(Equal("0000000000000000"))
		Expect(r.Uint8()).To(BeZero())
		Expect(r.Uint32(binary.LittleEndian)).To(Equal(uint32(2)))
		Expect(r.Remaining()).To(BeZero())
		Expect(r.Err()).To(Succeed())
	})

	It("sends empty payloads for the handshake queries", func() {
		Expect(catalog.ChallengeRequest().Payload).To(BeEmpty())
		Expect(catalog.VersionRequest().Payload).To(BeEmpty())
		Expect(catalog.PingRequest().Payload).To(BeEmpty())
	})

	Describe("SetHeatSetpointRequest()", func() {
		It("uses the fallback range before the config is loaded", func() {
			s := catalog.NewState()

			_, err := catalog.SetHeatSetpointRequest(s, catalog.BodyPool, 39)
			Expect(isValidationError(err)).To(BeTrue())

			msg, err := catalog.SetHeatSetpointRequest(s, catalog.BodyPool, 104)
			Expect(err).To(Succeed())
			Expect(msg.Payload).To(HaveLen(12))
		})

		It("uses the controller's limits once known", func() {
			s := catalog.SampleState()
			s.Controller.SetpointLimits[catalog.BodySpa] = [2]int{80, 100}

			_, err := catalog.SetHeatSetpointRequest(s, catalog.BodySpa, 102)
			Expect(isValidationError(err)).To(BeTrue())

			_, err = catalog.SetHeatSetpointRequest(s, catalog.BodySpa, 100)
			Expect(err).To(Succeed())
		})

		It("rejects unknown bodies", func() {
			_, err := catalog.SetHeatSetpointRequest(catalog.NewState(), 2, 80)
			Expect(isValidationError(err)).To(BeTrue())
		})
	})

	It("validates heat modes", func() {
		_, err := catalog.SetHeatModeRequest(catalog.BodyPool, 5)
		Expect(isValidationError(err)).To(BeTrue())

		_, err = catalog.SetHeatModeRequest(catalog.BodySpa, catalog.HeatModeHeater)
		Expect(err).To(Succeed())
	})

	It("validates circuits against the config", func() {
		s := catalog.SampleState()

		_, err := catalog.ButtonPressRequest(s, 999, true)
		Expect(isValidationError(err)).To(BeTrue())

		_, err = catalog.ButtonPressRequest(s, 0, true)
		Expect(isValidationError(err)).To(BeTrue())

		msg, err := catalog.ButtonPressRequest(s, 505, false)
		Expect(err).To(Succeed())
		Expect(msg.Code).To(Equal(protocol.CodeButtonPress))
	})

	It("validates salt generator output", func() {
		_, err := catalog.SetSCGConfigRequest(101, 0)
		Expect(isValidationError(err)).To(BeTrue())

		_, err = catalog.SetSCGConfigRequest(50, -1)
		Expect(isValidationError(err)).To(BeTrue())

		msg, err := catalog.SetSCGConfigRequest(50, 10)
		Expect(err).To(Succeed())
		Expect(msg.Payload).To(HaveLen(20))
	})

	It("validates light commands and pump indexes", func() {
		_, err := catalog.LightCommandRequest(22)
		Expect(isValidationError(err)).To(BeTrue())

		_, err = catalog.PumpStatusRequest(8)
		Expect(isValidationError(err)).To(BeTrue())

		_, err = catalog.PumpStatusRequest(7)
		Expect(err).To(Succeed())
	})
})

var _ = Describe("Export()", func() {
	It("writes category.attribute leaves", func() {
		store := storage.NewInmemoryStore()
		defer store.Close()

		Expect(catalog.Export(context.Background(), catalog.SampleState(), store)).To(Succeed())

		doc, err := store.Backup()
		Expect(err).To(Succeed())

		air := gjson.GetBytes(doc, "controller.air_temperature")
		Expect(air.Get("name").String()).To(Equal("Air Temperature"))
		Expect(air.Get("value").Int()).To(Equal(int64(71)))
		Expect(air.Get("unit").String()).To(Equal("°F"))

		Expect(gjson.GetBytes(doc, "body.spa.heat_setpoint.value").Int()).To(Equal(int64(102)))
		Expect(gjson.GetBytes(doc, "circuit.circuit_505.on.value").Bool()).To(BeTrue())
	})

	It("encodes bytes and tuples reversibly", func() {
		store := storage.NewInmemoryStore()
		defer store.Close()

		Expect(catalog.Export(context.Background(), catalog.SampleState(), store)).To(Succeed())

		doc, err := store.Backup()
		Expect(err).To(Succeed())

		flags := gjson.GetBytes(doc, "controller.pump_flags.value").String()
		Expect(storage.DecodeValue(flags)).To(Equal([]byte{0x80, 0x80, 0, 0, 0, 0, 0, 0}))

		cyan := gjson.GetBytes(doc, "color.color_2.value").String()
		Expect(storage.DecodeValue(cyan)).To(Equal([]int64{0, 255, 200}))
	})

	It("propagates the controller's temperature unit", func() {
		store := storage.NewInmemoryStore()
		defer store.Close()

		s := catalog.SampleState()
		s.Controller.IsCelsius = true
		Expect(catalog.Export(context.Background(), s, store)).To(Succeed())

		doc, err := store.Backup()
		Expect(err).To(Succeed())
		Expect(gjson.GetBytes(doc, "body.pool.current_temperature.unit").String()).To(Equal("°C"))
	})
})

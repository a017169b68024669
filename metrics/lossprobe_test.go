package metrics

import (
	gomock "go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/flowmeter/sim"
)

var _ = Describe("LossProbe", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		counters *Counters
		logger   *capturingLogger
		probe    *LossProbe
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		counters = &Counters{}
		logger = &capturingLogger{}

		engine.EXPECT().CurrentTime().
			Return(sim.VTimeInSec(1.0)).
			AnyTimes()
		engine.EXPECT().Schedule(gomock.Any()).AnyTimes()

		probe = MakeLossProbeBuilder().
			WithEngine(engine).
			WithSampleLogger(logger).
			WithCounters(counters).
			WithPeriod(1.0).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should emit the loss as a percentage", func() {
		for i := 0; i < 100; i++ {
			counters.OnSent()
		}
		for i := 0; i < 95; i++ {
			counters.OnReceived()
		}

		probe.Handle(sim.MakeTickEvent(probe, 1.0))

		loss := logger.ofKind(KindLossPercent)
		Expect(loss).To(HaveLen(1))
		Expect(loss[0].Value).To(Equal(5.0))
		Expect(loss[0].Time).To(Equal(sim.VTimeInSec(1.0)))
	})

	It("should emit zero before any packet was sent", func() {
		probe.Handle(sim.MakeTickEvent(probe, 1.0))

		loss := logger.ofKind(KindLossPercent)
		Expect(loss).To(HaveLen(1))
		Expect(loss[0].Value).To(Equal(0.0))
	})

	It("should not emit after Stop", func() {
		probe.Stop()

		probe.Handle(sim.MakeTickEvent(probe, 1.0))

		Expect(logger.samples).To(BeEmpty())
	})
})

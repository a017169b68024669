package metrics

import (
	gomock "go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

type fakeRxSource struct {
	total uint64
}

func (f *fakeRxSource) TotalRx() uint64 {
	return f.total
}

type capturingLogger struct {
	samples []Sample
}

func (l *capturingLogger) AddSample(s Sample) {
	l.samples = append(l.samples, s)
}

func (l *capturingLogger) ofKind(kind Kind) []Sample {
	out := []Sample{}
	for _, s := range l.samples {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

var _ = Describe("Sampler", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *MockEngine
		rx        *fakeRxSource
		cache     *SignalCache
		logger    *capturingLogger
		sampler   *Sampler
		now       sim.VTimeInSec
		scheduled []sim.VTimeInSec
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		rx = &fakeRxSource{}
		cache = &SignalCache{}
		logger = &capturingLogger{}
		scheduled = nil

		engine.EXPECT().CurrentTime().
			DoAndReturn(func() sim.VTimeInSec { return now }).
			AnyTimes()
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e sim.Event) {
				scheduled = append(scheduled, e.Time())
			}).
			AnyTimes()

		sampler = MakeSamplerBuilder().
			WithEngine(engine).
			WithSampleLogger(logger).
			WithSignalCache(cache).
			WithRxSource(rx).
			WithPeriod(1.0).
			WithReferencePacketSize(1500).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule the first tick one period in, not at time zero", func() {
		sampler.Start()

		Expect(scheduled).To(Equal([]sim.VTimeInSec{1.0}))
		Expect(logger.samples).To(BeEmpty())
	})

	It("should compute throughput from received-byte deltas", func() {
		now = 1.0
		rx.total = 1_250_000
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		now = 2.0
		rx.total = 2_500_000
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		throughput := logger.ofKind(KindThroughputMbps)
		Expect(throughput).To(HaveLen(2))
		Expect(throughput[0].Value).To(Equal(10.0))
		Expect(throughput[1].Value).To(Equal(10.0))
		Expect(throughput[0].Time).To(Equal(sim.VTimeInSec(1.0)))
		Expect(throughput[1].Time).To(Equal(sim.VTimeInSec(2.0)))
	})

	It("should report zero throughput when ticked twice on the same total", func() {
		now = 1.0
		rx.total = 1_250_000
		sampler.Handle(sim.MakeTickEvent(sampler, now))
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		throughput := logger.ofKind(KindThroughputMbps)
		Expect(throughput).To(HaveLen(2))
		Expect(throughput[0].Value).To(Equal(10.0))
		Expect(throughput[1].Value).To(Equal(0.0))
	})

	It("should report the window in packets", func() {
		cache.CwndHook().Func(sim.HookCtx{
			Pos:  network.HookPosCwndChange,
			Item: uint64(15000),
		})

		now = 1.0
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		cwnd := logger.ofKind(KindCwndPackets)
		Expect(cwnd).To(HaveLen(1))
		Expect(cwnd[0].Value).To(Equal(10.0))
	})

	It("should report the RTT in milliseconds", func() {
		cache.RTTHook().Func(sim.HookCtx{
			Pos:  network.HookPosRTTChange,
			Item: sim.VTimeInSec(0.05),
		})

		now = 1.0
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		rtt := logger.ofKind(KindRTTMs)
		Expect(rtt).To(HaveLen(1))
		Expect(rtt[0].Value).To(Equal(50.0))
	})

	It("should reschedule itself exactly one period later", func() {
		now = 1.0
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		Expect(scheduled).To(Equal([]sim.VTimeInSec{2.0}))
	})

	It("should stop rescheduling after Stop", func() {
		sampler.Stop()

		now = 1.0
		sampler.Handle(sim.MakeTickEvent(sampler, now))

		Expect(scheduled).To(BeEmpty())
		Expect(logger.samples).To(BeEmpty())
	})
})

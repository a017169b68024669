package metrics

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

// lateSocketApp grants its socket only after a number of failed polls,
// imitating a sender whose transport comes up mid-run.
type lateSocketApp struct {
	socket       *network.Socket
	failuresLeft int
}

func (a *lateSocketApp) Name() string {
	return "flow0.src"
}

func (a *lateSocketApp) Handle(e sim.Event) error {
	return nil
}

func (a *lateSocketApp) TransportSocket() (*network.Socket, bool) {
	if a.failuresLeft > 0 {
		a.failuresLeft--
		return nil, false
	}
	return a.socket, true
}

// plainApp has no transport socket at all.
type plainApp struct{}

func (a plainApp) Name() string {
	return "flow0.sink"
}

func (a plainApp) Handle(e sim.Event) error {
	return nil
}

var _ = Describe("TraceAttacher", func() {
	var (
		engine *sim.SerialEngine
		cache  *SignalCache
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		cache = &SignalCache{}
	})

	It("should keep retrying until the socket appears, then attach once", func() {
		app := &lateSocketApp{
			socket:       network.NewSocket(1500, false, 0),
			failuresLeft: 3,
		}
		attacher := MakeTraceAttacherBuilder().
			WithEngine(engine).
			WithSignalCache(cache).
			WithApp(app).
			WithRetryDelay(0.1).
			Build()

		attacher.ScheduleAttach(0.1)
		Expect(engine.Run()).To(Succeed())

		Expect(attacher.Attached()).To(BeTrue())
		Expect(attacher.Attempts()).To(Equal(3))
		Expect(attacher.Err()).To(BeNil())
		Expect(app.socket.NumHooks()).To(Equal(2))
		Expect(engine.CurrentTime()).To(
			BeNumerically("~", 0.4, 1e-9))
	})

	It("should not subscribe twice when poked after attaching", func() {
		app := &lateSocketApp{socket: network.NewSocket(1500, false, 0)}
		attacher := MakeTraceAttacherBuilder().
			WithEngine(engine).
			WithSignalCache(cache).
			WithApp(app).
			Build()

		Expect(attacher.AttachTraces()).To(Succeed())
		Expect(attacher.AttachTraces()).To(Succeed())

		Expect(app.socket.NumHooks()).To(Equal(2))
	})

	It("should give up when the retry budget is exhausted", func() {
		app := &lateSocketApp{
			socket:       network.NewSocket(1500, false, 0),
			failuresLeft: 1000,
		}
		attacher := MakeTraceAttacherBuilder().
			WithEngine(engine).
			WithSignalCache(cache).
			WithApp(app).
			WithRetryDelay(0.1).
			WithMaxAttempts(5).
			Build()

		attacher.ScheduleAttach(0.1)
		Expect(engine.Run()).To(Succeed())

		Expect(attacher.Attached()).To(BeFalse())
		Expect(attacher.Attempts()).To(Equal(5))
		Expect(errors.Is(attacher.Err(), ErrAttachTimeout)).To(BeTrue())
	})

	It("should fail permanently on an app without a transport", func() {
		attacher := MakeTraceAttacherBuilder().
			WithEngine(engine).
			WithSignalCache(cache).
			WithApp(plainApp{}).
			Build()

		err := attacher.AttachTraces()

		Expect(errors.Is(err, ErrNotBulkSender)).To(BeTrue())
		Expect(attacher.Attached()).To(BeFalse())
		Expect(attacher.Attempts()).To(Equal(0))

		// the error is sticky, no retry chain is started
		Expect(errors.Is(attacher.AttachTraces(), ErrNotBulkSender)).
			To(BeTrue())
	})
})

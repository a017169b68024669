package metrics

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Counters", func() {
	var counters *Counters

	BeforeEach(func() {
		counters = &Counters{}
	})

	It("should report zero loss when nothing was sent", func() {
		Expect(counters.LossRatio()).To(Equal(0.0))
	})

	It("should report the fraction of unreceived packets", func() {
		for i := 0; i < 100; i++ {
			counters.OnSent()
		}
		for i := 0; i < 95; i++ {
			counters.OnReceived()
		}

		Expect(counters.LossRatio()).To(Equal(0.05))
	})

	It("should clamp loss to zero when received exceeds sent", func() {
		counters.OnSent()
		counters.OnReceived()
		counters.OnReceived()

		Expect(counters.LossRatio()).To(Equal(0.0))
	})

	It("should accumulate counts monotonically", func() {
		counters.OnSent()
		counters.OnSent()
		counters.OnReceived()

		Expect(counters.Sent()).To(Equal(uint64(2)))
		Expect(counters.Received()).To(Equal(uint64(1)))
	})

	It("should tolerate a concurrent reader", func() {
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				counters.OnSent()
				counters.OnReceived()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = counters.Sent()
				_ = counters.LossRatio()
			}
		}()
		wg.Wait()

		Expect(counters.Sent()).To(Equal(uint64(1000)))
		Expect(counters.Received()).To(Equal(uint64(1000)))
	})
})

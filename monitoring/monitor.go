// Package monitoring turns a running experiment into a small web server so
// that its progress can be observed from outside the process.
package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/sarchlab/flowmeter/metrics"
	"github.com/sarchlab/flowmeter/sim"
)

// Monitor can serve the current state of a measurement run over HTTP. It is
// read-only: it reports the virtual time and the latest cached signals, and
// never steers the simulation.
type Monitor struct {
	engine     sim.TimeTeller
	cache      *metrics.SignalCache
	counters   *metrics.Counters
	portNumber int
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.TimeTeller) {
	m.engine = e
}

// RegisterSignals registers the signal cache and counters of the measured
// flow.
func (m *Monitor) RegisterSignals(
	cache *metrics.SignalCache,
	counters *metrics.Counters,
) {
	m.cache = cache
	m.counters = counters
}

type statusResponse struct {
	Now         float64 `json:"now"`
	CwndBytes   uint64  `json:"cwnd_bytes"`
	RTTMs       float64 `json:"rtt_ms"`
	Sent        uint64  `json:"packets_sent"`
	Received    uint64  `json:"packets_received"`
	LossPercent float64 `json:"loss_percent"`
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", m.serveStatus)

	listener, err := net.Listen("tcp",
		fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := http.Serve(listener, r)
		if err != nil {
			log.Print(err)
		}
	}()
}

func (m *Monitor) serveStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Now:         float64(m.engine.CurrentTime()),
		CwndBytes:   m.cache.CwndBytes(),
		RTTMs:       float64(m.cache.RTT()) * 1e3,
		Sent:        m.counters.Sent(),
		Received:    m.counters.Received(),
		LossPercent: m.counters.LossRatio() * 100,
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

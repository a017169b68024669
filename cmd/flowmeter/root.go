package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/flowmeter/harness"
	"github.com/sarchlab/flowmeter/sim"
)

var flags struct {
	topology    string
	cc          string
	tracing     bool
	maxBytes    uint64
	maxPackets  uint64
	flows       int
	pacing      bool
	pacingRate  string
	duration    float64
	interval    float64
	outputDir   string
	monitor     bool
	monitorPort int
	logEvents   bool
}

var rootCmd = &cobra.Command{
	Use: "flowmeter",
	Short: "Flowmeter runs bulk-transfer flows over a simulated topology " +
		"and samples their transport metrics.",
	Long: `Flowmeter runs bulk-transfer flows over a simulated network ` +
		`topology, attaches instrumentation to the transport sockets, and ` +
		`samples congestion window, RTT, throughput, and packet loss at a ` +
		`fixed virtual-time interval. Each metric is written to its own ` +
		`time-series file in the output directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := harness.DefaultConfig()
		cfg.Topology = flags.topology
		cfg.CongestionLabel = flags.cc
		cfg.Tracing = flags.tracing
		cfg.MaxBytes = flags.maxBytes
		cfg.MaxPackets = flags.maxPackets
		cfg.FlowCount = flags.flows
		cfg.PacingEnabled = flags.pacing
		cfg.PacingRate = flags.pacingRate
		cfg.Duration = sim.VTimeInSec(flags.duration)
		cfg.SamplingInterval = sim.VTimeInSec(flags.interval)
		cfg.OutputDir = flags.outputDir
		cfg.MonitorOn = flags.monitor
		cfg.MonitorPort = flags.monitorPort
		cfg.LogEvents = flags.logEvents

		e, err := harness.MakeBuilder().WithConfig(cfg).Build()
		if err != nil {
			return err
		}

		return e.Run()
	},
}

func defaultOutputDir() string {
	if dir := os.Getenv("FLOWMETER_OUTPUT_DIR"); dir != "" {
		return dir
	}
	return "out"
}

func init() {
	f := rootCmd.Flags()

	f.StringVar(&flags.topology, "topology", "pointtopoint",
		"Topology preset: pointtopoint, star, ring, bus, or mesh")
	f.StringVar(&flags.cc, "cc", "tcpcubic",
		"Experiment label used as the output file prefix")
	f.BoolVar(&flags.tracing, "tracing", false,
		"Flag to enable/disable packet-level tracing")
	f.Uint64Var(&flags.maxBytes, "max-bytes", 0,
		"Total number of bytes for each flow to send (0 = unbounded)")
	f.Uint64Var(&flags.maxPackets, "max-packets", 0,
		"Total number of packets for each flow to send; overrides max-bytes")
	f.IntVar(&flags.flows, "flows", 1,
		"Number of concurrent flows between sender and receiver")
	f.BoolVar(&flags.pacing, "pacing", true,
		"Flag to enable/disable pacing in the transport")
	f.StringVar(&flags.pacingRate, "pacing-rate", "10Mbps",
		"Max pacing rate, e.g. 10Mbps")
	f.Float64Var(&flags.duration, "duration", 100.0,
		"Simulation horizon in simulated seconds")
	f.Float64Var(&flags.interval, "interval", 1.0,
		"Metric sampling interval in simulated seconds")
	f.StringVar(&flags.outputDir, "output-dir", defaultOutputDir(),
		"Directory that receives the metric streams")
	f.BoolVar(&flags.monitor, "monitor", false,
		"Serve the run state over HTTP while the simulation runs")
	f.IntVar(&flags.monitorPort, "monitor-port", 0,
		"Port for the monitoring server (0 = random)")
	f.BoolVar(&flags.logEvents, "log-events", false,
		"Print every event the engine triggers (debug aid)")
}

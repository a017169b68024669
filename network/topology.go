package network

import (
	"fmt"

	"github.com/sarchlab/flowmeter/sim"
)

// A Preset is one of the fixed experiment layouts. Each preset reduces to
// the links a flow traverses between the client and the server node,
// using the rate and delay constants of the corresponding experiment.
type Preset struct {
	Name      string
	NumNodes  int
	LinkRate  DataRate
	LinkDelay sim.VTimeInSec
	Hops      int
	QueueCap  int

	// Application windows relative to the run duration. The point-to-point
	// experiment starts its source 1 s in and stops it 1 s early; the others
	// run sources edge to edge.
	SourceStartOffset sim.VTimeInSec
	SourceStopEarly   sim.VTimeInSec
}

var presets = map[string]Preset{
	"pointtopoint": {
		Name:              "pointtopoint",
		NumNodes:          3,
		LinkRate:          5 * Mbps,
		LinkDelay:         0.002,
		Hops:              2,
		QueueCap:          100,
		SourceStartOffset: 1.0,
		SourceStopEarly:   1.0,
	},
	"star": {
		Name:      "star",
		NumNodes:  6,
		LinkRate:  15 * Mbps,
		LinkDelay: 0.003,
		Hops:      2,
		QueueCap:  100,
	},
	"ring": {
		Name:      "ring",
		NumNodes:  8,
		LinkRate:  5 * Mbps,
		LinkDelay: 0.015,
		Hops:      4,
		QueueCap:  100,
	},
	"bus": {
		Name:      "bus",
		NumNodes:  8,
		LinkRate:  85 * Mbps,
		LinkDelay: 0.003,
		Hops:      1,
		QueueCap:  100,
	},
	"mesh": {
		Name:      "mesh",
		NumNodes:  10,
		LinkRate:  6 * Mbps,
		LinkDelay: 0.015,
		Hops:      1,
		QueueCap:  100,
	},
}

// PresetByName returns the preset with the given name.
func PresetByName(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown topology %q", name)
	}
	return p, nil
}

// PresetNames lists the available preset names.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for _, p := range []string{"pointtopoint", "star", "ring", "bus", "mesh"} {
		names = append(names, presets[p].Name)
	}
	return names
}

// BuildPaths creates the shared links of the preset and one path per flow.
// Flows contend on the same links, which is what creates queueing and loss.
func (p Preset) BuildPaths(flowCount int) []*Path {
	links := make([]*Link, p.Hops)
	for i := range links {
		name := fmt.Sprintf("%s.link%d", p.Name, i)
		links[i] = NewLink(name, p.LinkRate, p.LinkDelay, p.QueueCap)
	}

	paths := make([]*Path, flowCount)
	for i := range paths {
		paths[i] = &Path{Links: links}
	}
	return paths
}

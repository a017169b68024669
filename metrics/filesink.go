package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tebeka/atexit"
)

var streamExtensions = map[Kind]string{
	KindCwndPackets:    ".cwnd",
	KindRTTMs:          ".rtt",
	KindThroughputMbps: ".throughput",
	KindLossPercent:    ".packetloss",
}

// A FileSink writes each metric stream to its own append-only text file,
// one `<timestamp> <value>` row per sample. All four streams are opened up
// front; failing to open any of them fails the whole sink.
type FileSink struct {
	files   map[Kind]*os.File
	writers map[Kind]*bufio.Writer
}

// NewFileSink creates the output directory if needed and opens one stream
// per metric kind, named `<prefix>.cwnd`, `<prefix>.rtt`,
// `<prefix>.throughput`, and `<prefix>.packetloss`.
func NewFileSink(dir, prefix string) (*FileSink, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	s := &FileSink{
		files:   make(map[Kind]*os.File),
		writers: make(map[Kind]*bufio.Writer),
	}

	for kind, ext := range streamExtensions {
		path := filepath.Join(dir, prefix+ext)

		f, err := os.Create(path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("cannot open output stream %s: %w",
				path, err)
		}

		s.files[kind] = f
		s.writers[kind] = bufio.NewWriter(f)
	}

	atexit.Register(func() { s.Flush() })

	return s, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", dir)
	}

	return nil
}

// AddSample appends one row to the sample's stream.
func (s *FileSink) AddSample(sample Sample) {
	w, ok := s.writers[sample.Kind]
	if !ok {
		panic(fmt.Sprintf("unknown metric kind %s", sample.Kind))
	}

	fmt.Fprintf(w, "%g\t%g\n", float64(sample.Time), sample.Value)
}

// Flush flushes all buffered rows to disk.
func (s *FileSink) Flush() {
	for _, w := range s.writers {
		w.Flush()
	}
}

// Close flushes and closes all streams.
func (s *FileSink) Close() error {
	s.Flush()

	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

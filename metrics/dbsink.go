package metrics

const sampleTableName = "metric_samples"

type sampleRow struct {
	Time  float64
	Kind  string
	Value float64
}

// SampleRecorder is the subset of the data-recording service that the sink
// needs.
type SampleRecorder interface {
	CreateTable(tableName string, sampleEntry any)
	InsertData(tableName string, entry any)
}

// A DBSink records metric samples into the run's SQLite database, in
// addition to (or instead of) the text streams.
type DBSink struct {
	recorder SampleRecorder
}

// NewDBSink creates a DBSink backed by the given recorder.
func NewDBSink(recorder SampleRecorder) *DBSink {
	recorder.CreateTable(sampleTableName, sampleRow{})

	return &DBSink{recorder: recorder}
}

// AddSample records one sample.
func (s *DBSink) AddSample(sample Sample) {
	s.recorder.InsertData(sampleTableName, sampleRow{
		Time:  float64(sample.Time),
		Kind:  string(sample.Kind),
		Value: sample.Value,
	})
}

// MultiLogger fans a sample out to several loggers.
type MultiLogger []SampleLogger

// AddSample records the sample with every registered logger.
func (m MultiLogger) AddSample(sample Sample) {
	for _, l := range m {
		l.AddSample(sample)
	}
}

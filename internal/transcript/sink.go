package transcript

// Sink receives messages as the driver appends them. Implementations must
// not retain or mutate the message slice backing the history; they only get
// values.
type Sink interface {
	Record(Message) error
}

// MultiSink fans a message out to several sinks, returning the first error.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(msg Message) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(msg); err != nil {
			return err
		}
	}
	return nil
}

package domain

// OutputEvent is the serialized form destined for the notices topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

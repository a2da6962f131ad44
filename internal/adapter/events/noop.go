package events

// NoopPublisher drops all events. Used when no broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() Publisher { return NoopPublisher{} }

func (NoopPublisher) Publish(subject string, data []byte) error { return nil }

func (NoopPublisher) Close() error { return nil }

// Package events publishes station lifecycle events (session started, bill
// created) for downstream consumers such as payment or analytics pipelines.
package events

// Publisher is the outbound event port.
type Publisher interface {
	Publish(subject string, data []byte) error
	Close() error
}

// Subjects emitted by the charging service.
const (
	SubjectSessionStarted = "station.session.started"
	SubjectSessionEnded   = "station.session.ended"
	SubjectBillCreated    = "station.bill.created"
	SubjectPileFault      = "station.pile.fault"
)

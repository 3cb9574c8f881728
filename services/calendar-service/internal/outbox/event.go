package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (production-style: event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Events published by the calendar service.
const (
	EventAppointmentBooked    = "calendar.appointment.booked.v1"
	EventAppointmentCancelled = "calendar.appointment.cancelled.v1"
	EventFriendshipRequested  = "calendar.friendship.requested.v1"
	EventFriendshipAccepted   = "calendar.friendship.accepted.v1"
)

package constants

// Event types published on the bot event stream
const (
	EventPadSessionStarted     = "pad.session.started"
	EventPadSessionEnded       = "pad.session.ended"
	EventVerificationCompleted = "verification.completed"
	EventTicketClose           = "ticket.close"
)

package adapter

// Mailer sends plain-text notification mail. Used by the expiry reminder
// sweep; delivery failures are logged and never block the sweep.
type Mailer interface {
	Send(to, subject, body string) error
}

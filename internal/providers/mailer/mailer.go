package mailer

// Notifier delivers a single message to one recipient. May fail
// transiently; callers decide whether a failure matters.
type Notifier interface {
	Notify(to, subject, body string) error
}

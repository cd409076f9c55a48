package mailer

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

const defaultSendTimeout = 10 * time.Second

// SMTPNotifier sends plain-text mail over SMTP. The send is bounded by
// SendTimeout because it is synchronous network I/O invoked from the
// scheduling worker.
type SMTPNotifier struct {
	Host        string
	Port        int
	From        string
	Password    string
	SendTimeout time.Duration
}

// NewSMTPNotifierFromEnv reads SMTP_HOST, SMTP_PORT, EMAIL_USER and
// EMAIL_PASS. Defaults match the original deployment (Gmail SSL).
func NewSMTPNotifierFromEnv() (*SMTPNotifier, error) {
	from := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if from == "" || pass == "" {
		return nil, fmt.Errorf("EMAIL_USER and EMAIL_PASS must be set")
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := 465
	if v := os.Getenv("SMTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		port = p
	}

	return &SMTPNotifier{
		Host:        host,
		Port:        port,
		From:        from,
		Password:    pass,
		SendTimeout: defaultSendTimeout,
	}, nil
}

func (n *SMTPNotifier) Notify(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.Host, n.Port, n.From, n.Password)

	timeout := n.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	// gomail does not expose a dial/send deadline, so the whole exchange
	// is raced against a timer.
	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("smtp send to %s timed out after %s", to, timeout)
	}
}

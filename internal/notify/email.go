// Package notify sends alerts about forecast runs.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"budgetcast/internal/amqp"
	"budgetcast/internal/core"
	"budgetcast/internal/log"
)

// MailerConfig holds SMTP settings
type MailerConfig struct {
	Addr     string
	Username string
	Password string
	From     string
	To       []string
}

// Mailer delivers plain text messages over SMTP.
type Mailer struct {
	config MailerConfig
	auth   smtp.Auth

	// send is replaced in tests
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(config MailerConfig) (*Mailer, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("missing SMTP address")
	}
	if len(config.To) == 0 {
		return nil, fmt.Errorf("no alert recipients")
	}
	m := &Mailer{
		config: config,
		send:   func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
	if config.Username != "" {
		host, _, err := net.SplitHostPort(config.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP address %q: %w", config.Addr, err)
		}
		m.auth = smtp.PlainAuth("", config.Username, config.Password, host)
	}
	return m, nil
}

// Send mails subject and body to every configured recipient.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = m.config.From
	e.To = m.config.To
	e.Subject = subject
	e.Text = []byte(body)
	if err := m.send(e, m.config.Addr, m.auth); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

// Sender is anything that can deliver an alert.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// Alerter warns when a forecast total is projected to go negative.
type Alerter struct {
	sender Sender
	logger *log.Logger
}

func NewAlerter(sender Sender, logger *log.Logger) *Alerter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Alerter{sender: sender, logger: logger.WithComponent(log.ComponentApp)}
}

// Check sends an alert for msg when its minimum total is negative. It
// reports whether an alert was sent.
func (a *Alerter) Check(ctx context.Context, msg *amqp.ForecastMessage) (bool, error) {
	if msg.MinTotalCents >= 0 {
		return false, nil
	}
	subject := fmt.Sprintf("Balance forecast goes negative on %s", msg.MinTotalDate)
	if err := a.sender.Send(ctx, subject, alertBody(msg)); err != nil {
		return false, err
	}
	a.logger.InfoContext(ctx, "Low balance alert sent",
		log.FieldRunID, msg.RunID,
		"min_total_cents", msg.MinTotalCents)
	return true, nil
}

func alertBody(msg *amqp.ForecastMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Forecast %s from %s over %d days.\n\n", msg.RunID, msg.StartDate, msg.HorizonDays)
	fmt.Fprintf(&b, "Lowest total: %s on %s\n", core.Cents(msg.MinTotalCents), msg.MinTotalDate)
	fmt.Fprintf(&b, "Final total:  %s\n", core.Cents(msg.FinalTotalCents))
	if msg.Warnings > 0 {
		fmt.Fprintf(&b, "Warnings:     %d\n", msg.Warnings)
	}
	b.WriteString("\nFinal balances:\n")
	for _, a := range msg.Accounts {
		fmt.Fprintf(&b, "  %-20s %-8s %s\n", a.Name, a.Type, core.Cents(a.BalanceCents))
	}
	return b.String()
}

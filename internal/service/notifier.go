package service

import "log"

// Notifier delivers user-facing notifications. Delivery failures are
// logged by callers, never propagated into the booking flow.
type Notifier interface {
	Send(to, subject, htmlBody string) error
}

// ConsoleNotifier logs notifications instead of sending them. Used when
// no SMTP settings are configured.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Send(to, subject, htmlBody string) error {
	log.Printf("[Notifier] (console) to=%s subject=%q", to, subject)
	return nil
}

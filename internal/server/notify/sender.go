// Package notify delivers short text messages to users' phones.
package notify

import "context"

// Sender delivers body to the phone number to. Failures wrap
// common.ErrNotification.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, body string) error

func (f SenderFunc) Send(ctx context.Context, to, body string) error { return f(ctx, to, body) }

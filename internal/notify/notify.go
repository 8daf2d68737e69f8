// Package notify delivers best-effort email notifications. Business code
// hands messages to a Queue and never waits for delivery.
package notify

import "context"

type Message struct {
	ID      string
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

package notify

import (
	"context"

	"timebank-go/pkg/logger"
)

// LogSender writes messages to the log instead of sending them. Used when SMTP is disabled.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info("notify.log: message", "message_id", msg.ID, "to", msg.To, "subject", msg.Subject)
	return nil
}

package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail that writes messages to the default logger instead of
// sending them.
type Log struct {
	withBody bool
}

// NewLog returns a Log mailer. withBody includes message bodies in the log
// entry, which is only acceptable on a developer machine.
func NewLog(withBody bool) *Log {
	return &Log{withBody: withBody}
}

// Send logs msg.
func (l *Log) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrSMTPNoRecipients
	}

	attrs := []any{"to", msg.To, "subject", msg.Subject}
	if l.withBody {
		attrs = append(attrs, "text_body", msg.TextBody)
	}
	slog.InfoContext(ctx, "mail not sent, log mailer in use", attrs...)

	return nil
}

// Close implements io.Closer.
func (l *Log) Close() error {
	return nil
}

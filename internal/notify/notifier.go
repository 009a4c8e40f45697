package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// TemplateKind selects the outbound message template.
type TemplateKind string

const (
	TemplateReceipt    TemplateKind = "receipt"
	TemplateResultCopy TemplateKind = "result_copy"
)

// Payload carries template data for one notification.
type Payload struct {
	Subject    string
	Body       string
	Attachment []byte
}

// Notifier delivers outbound notifications. Callers treat it as
// fire-and-forget: delivery is at-least-once and failures are logged,
// never propagated into payment state.
type Notifier interface {
	Notify(ctx context.Context, address string, kind TemplateKind, payload Payload) error
}

type smtpNotifier struct {
	addr string
	from string
}

// NewSMTPNotifier creates a notifier that delivers over plain SMTP.
func NewSMTPNotifier(addr, from string) Notifier {
	return &smtpNotifier{addr: addr, from: from}
}

func (n *smtpNotifier) Notify(ctx context.Context, address string, kind TemplateKind, payload Payload) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", address)
	fmt.Fprintf(&msg, "Subject: %s\r\n", payload.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(payload.Body)
	if len(payload.Attachment) > 0 {
		msg.WriteString("\r\n\r\n")
		msg.Write(payload.Attachment)
	}

	if err := smtp.SendMail(n.addr, nil, n.from, []string{address}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send %s to %s: %w", kind, address, err)
	}
	return nil
}

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs. Used when no SMTP relay
// is configured.
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(ctx context.Context, address string, kind TemplateKind, payload Payload) error {
	n.logger.Info("notification (log only)",
		zap.String("address", address),
		zap.String("template", string(kind)),
		zap.String("subject", payload.Subject),
	)
	return nil
}

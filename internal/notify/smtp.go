package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/service"
)

// SMTPConfig configures the SMTP notifier.
type SMTPConfig struct {
	Host     string
	Username string
	Password string
	From     string
	Port     int
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier e-mails reports through an SMTP relay.
type SMTPNotifier struct {
	send  sendMailFunc
	now   func() time.Time
	retry common.DeliveryPolicy
	cfg   SMTPConfig
}

// NewSMTPNotifier creates a notifier for cfg.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
		now:  time.Now,
		retry: common.DeliveryPolicy{
			Target:       net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Permanent:    permanentSMTPFailure,
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
	}
}

// Send renders and delivers the report as a single message.
func (n *SMTPNotifier) Send(ctx context.Context, report service.Report) error {
	if strings.TrimSpace(report.To) == "" {
		return fmt.Errorf("%w: report recipient", common.ErrMissingConfig)
	}

	msg, err := n.message(report)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	err = common.Deliver(ctx, n.retry, func(context.Context) error {
		return n.send(addr, auth, n.cfg.From, []string{report.To}, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to send report to %s: %w", report.To, err)
	}

	slog.Info("Report sent", "to", report.To, "transactions", len(report.Transactions))
	return nil
}

// permanentSMTPFailure reports 5xx replies, which the relay will repeat on retry.
func permanentSMTPFailure(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code >= 500
}

func (n *SMTPNotifier) message(report service.Report) ([]byte, error) {
	htmlBody, err := HTMLBody(report.Transactions)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{contentType: "text/plain; charset=UTF-8", content: TextBody(report.Transactions)},
		{contentType: "text/html; charset=UTF-8", content: htmlBody},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, fmt.Errorf("failed to build message: %w", err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to build message: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", report.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", Subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

// LogNotifier writes reports to the structured log instead of sending them.
type LogNotifier struct{}

// Send logs the report summary.
func (LogNotifier) Send(_ context.Context, report service.Report) error {
	if strings.TrimSpace(report.To) == "" {
		return fmt.Errorf("%w: report recipient", common.ErrMissingConfig)
	}
	slog.Info("Suspicious transactions report",
		"to", report.To,
		"subject", Subject,
		"transactions", len(report.Transactions),
		"body", TextBody(report.Transactions))
	return nil
}

package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"

	"salesreport/internal/config"
	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

// DefaultTimeout bounds a whole SMTP conversation.
const DefaultTimeout = 30 * time.Second

// Message is one outgoing report e-mail.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []string
}

// Sender delivers a Message. Implementations make a single attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the server and account used to send reports.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	TLSPolicy mail.TLSPolicy
	Timeout   time.Duration
}

// SMTPConfigFromEmail maps the e-mail settings onto an SMTP account that
// authenticates as the sender and requires STARTTLS.
func SMTPConfigFromEmail(cfg config.EmailConfig) SMTPConfig {
	return SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.Sender,
		Password:  cfg.Password,
		From:      cfg.Sender,
		TLSPolicy: mail.TLSMandatory,
		Timeout:   DefaultTimeout,
	}
}

// SMTPSender sends messages through an authenticated SMTP server.
type SMTPSender struct {
	logger *slog.Logger
	cfg    SMTPConfig
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(logger *slog.Logger, cfg SMTPConfig) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SMTPSender{logger: logger, cfg: cfg}
}

// Send builds the message and delivers it in one SMTP session. Every
// failure, including a missing attachment, is a DELIVERY error.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.BuildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithTLSPolicy(s.cfg.TLSPolicy),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return errors.NewDeliveryError("failed to configure SMTP client", err).
			WithContext("host", s.cfg.Host)
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.NewDeliveryError("failed to send report e-mail", err).
			WithContext("host", s.cfg.Host).
			WithContext("to", msg.To)
	}

	s.logger.InfoContext(ctx, "Report e-mail sent",
		slog.String("to", msg.To),
		slog.Int("attachments", len(msg.Attachments)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// BuildMessage assembles the MIME message without contacting the server.
func (s *SMTPSender) BuildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, errors.NewDeliveryError("invalid sender address", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, errors.NewDeliveryError("invalid recipient address", err).WithContext("to", msg.To)
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, path := range msg.Attachments {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NewDeliveryError(fmt.Sprintf("attachment %s is not readable", path), err)
		}
		m.AttachFile(path)
	}
	return m, nil
}

// WriteMessage renders the message as it would be sent. Useful for dry runs.
func (s *SMTPSender) WriteMessage(w io.Writer, msg Message) error {
	m, err := s.BuildMessage(msg)
	if err != nil {
		return err
	}
	if _, err := m.WriteTo(w); err != nil {
		return errors.NewDeliveryError("failed to render e-mail", err)
	}
	return nil
}

// ComposeBody returns the plain text body announcing the day's total.
func ComposeBody(total decimal.Decimal) string {
	return "Olá,\n\n" +
		"Segue em anexo o relatório diário de vendas gerado automaticamente pelo robô.\n\n" +
		"📊 Total de Vendas: " + domain.FormatCurrency(total) + "\n\n" +
		"Atenciosamente,\n" +
		"Bot RPA de Relatórios\n"
}

// NewReportMessage builds the report e-mail for the given artifacts.
func NewReportMessage(cfg config.EmailConfig, total decimal.Decimal, artifacts domain.Artifacts) Message {
	return Message{
		To:          cfg.Receiver,
		Subject:     cfg.Subject,
		Body:        ComposeBody(total),
		Attachments: artifacts.Attachments(),
	}
}

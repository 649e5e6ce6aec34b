package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/rwtracker/internal/model"
)

// SMTPConfig holds mail relay settings. Passed explicitly to
// NewSMTPDispatcher; nothing is read from global state.
type SMTPConfig struct {
	Server     string `yaml:"server" json:"server"`
	Port       int    `yaml:"port" json:"port"`
	User       string `yaml:"user" json:"user"`
	Password   string `yaml:"password" json:"-"`
	From       string `yaml:"from" json:"from"`
	AdminEmail string `yaml:"admin_email" json:"admin_email"`
}

// Addr returns host:port of the relay.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// Validate checks the settings needed to send mail.
func (c SMTPConfig) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("smtp server is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("smtp port %d out of range", c.Port))
	}
	if c.From == "" {
		errs = append(errs, errors.New("smtp from address is required"))
	}
	return errors.Join(errs...)
}

// SendFunc matches smtp.SendMail. It upgrades the session with STARTTLS
// when the server offers it and authenticates when auth is non-nil.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPDispatcher sends one plain-text message per destination.
type SMTPDispatcher struct {
	cfg    SMTPConfig
	send   SendFunc
	logger *slog.Logger
	now    func() time.Time
}

var _ Dispatcher = (*SMTPDispatcher)(nil)

// SMTPOption configures an SMTPDispatcher.
type SMTPOption func(*SMTPDispatcher)

// WithSendFunc replaces smtp.SendMail (tests).
func WithSendFunc(fn SendFunc) SMTPOption {
	return func(d *SMTPDispatcher) {
		d.send = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SMTPOption {
	return func(d *SMTPDispatcher) {
		d.logger = l
	}
}

// WithClock overrides the Date header source.
func WithClock(now func() time.Time) SMTPOption {
	return func(d *SMTPDispatcher) {
		d.now = now
	}
}

// NewSMTPDispatcher creates a dispatcher for the given relay settings.
func NewSMTPDispatcher(cfg SMTPConfig, opts ...SMTPOption) *SMTPDispatcher {
	d := &SMTPDispatcher{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends the party's matches to each of its destinations. A failing
// destination does not stop the others; all failures are returned joined.
func (d *SMTPDispatcher) Dispatch(ctx context.Context, party model.Party, matches []model.MatchEvent) error {
	if len(matches) == 0 {
		return nil
	}
	body := RenderMatches(matches)

	var errs []error
	for _, to := range party.Destinations {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := d.sendMail(to, MatchSubject, body); err != nil {
			d.logger.ErrorContext(ctx, "notification failed", "party", party.Name, "to", to, "error", err)
			errs = append(errs, fmt.Errorf("dispatch to %s: %w", to, err))
			continue
		}
		d.logger.InfoContext(ctx, "notification sent", "party", party.Name, "to", to, "matches", len(matches))
	}
	return errors.Join(errs...)
}

// DispatchSummary sends the run summary to the administrator address.
// Without an administrator address the summary is skipped.
func (d *SMTPDispatcher) DispatchSummary(ctx context.Context, byParty []model.PartyMatches) error {
	if len(byParty) == 0 {
		return nil
	}
	if d.cfg.AdminEmail == "" {
		d.logger.WarnContext(ctx, "no admin_email configured, summary not sent")
		return nil
	}
	if err := d.sendMail(d.cfg.AdminEmail, SummarySubject, RenderSummary(byParty)); err != nil {
		return fmt.Errorf("dispatch summary to %s: %w", d.cfg.AdminEmail, err)
	}
	d.logger.InfoContext(ctx, "summary sent", "to", d.cfg.AdminEmail, "parties", len(byParty))
	return nil
}

func (d *SMTPDispatcher) sendMail(to, subject, body string) error {
	var auth smtp.Auth
	if d.cfg.User != "" {
		auth = smtp.PlainAuth("", d.cfg.User, d.cfg.Password, d.cfg.Server)
	}
	msg := buildMessage(d.cfg.From, to, subject, body, d.now())
	return d.send(d.cfg.Addr(), auth, d.cfg.From, []string{to}, msg)
}

// buildMessage assembles an RFC 5322 plain-text message with CRLF line endings.
func buildMessage(from, to, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

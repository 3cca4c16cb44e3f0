package mailer

import (
	"context"
	"errors"

	"gopkg.in/mail.v2"

	"github.com/coffeemorning/cmc-backend/pkg/config"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// Result reports the outcome of a dispatch attempt. A failed send never
// fails the flow that requested it; the caller gets the error string to log
// or display on the admin dashboard.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Service renders database-managed templates and dispatches them over SMTP.
type Service struct {
	cache  *templateCache
	dialer dialer
	from   string
	logger *logger.Logger
}

// NewService wires the notification dispatcher.
func NewService(repo TemplateRepository, cfg config.SMTPConfig, tplCfg config.TemplatesConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "template repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if cfg.Host == "" || cfg.From == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "smtp host and from address are required")
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout

	return &Service{
		cache:  newTemplateCache(repo, tplCfg.RefreshInterval),
		dialer: d,
		from:   cfg.From,
		logger: logg,
	}, nil
}

// NewServiceWithDialer injects a dialer, used by tests.
func NewServiceWithDialer(repo TemplateRepository, d dialer, from string, tplCfg config.TemplatesConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil || d == nil || logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mailer dependencies required")
	}
	return &Service{
		cache:  newTemplateCache(repo, tplCfg.RefreshInterval),
		dialer: d,
		from:   from,
		logger: logg,
	}, nil
}

// Send renders the template and dispatches it synchronously. Errors are
// returned for the caller to log; they must not abort payment flows.
func (s *Service) Send(ctx context.Context, t enums.TemplateType, to string, data map[string]string) error {
	result := s.Dispatch(ctx, t, to, data)
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

// Dispatch renders and sends, returning a structured result.
func (s *Service) Dispatch(ctx context.Context, t enums.TemplateType, to string, data map[string]string) Result {
	if to == "" {
		return Result{Success: false, Error: "recipient address is required"}
	}
	if !t.IsValid() {
		return Result{Success: false, Error: "unknown template type"}
	}

	tpl, err := s.cache.get(ctx, t)
	if err != nil {
		s.logger.Error(ctx, "load email template", err)
		return Result{Success: false, Error: "template unavailable: " + err.Error()}
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", Render(tpl.Subject, data))
	msg.SetBody("text/html", Render(tpl.BodyHTML, data))
	if tpl.BodyText != "" {
		msg.AddAlternative("text/plain", Render(tpl.BodyText, data))
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{"template": t.String()})
		s.logger.Error(ctx, "send email", err)
		return Result{Success: false, Error: err.Error()}
	}

	ctx = s.logger.WithFields(ctx, map[string]any{"template": t.String()})
	s.logger.Info(ctx, "email sent")
	return Result{Success: true}
}

// SendAsync dispatches in the background so callers never block on SMTP.
func (s *Service) SendAsync(ctx context.Context, t enums.TemplateType, to string, data map[string]string) {
	go func() {
		// Detach from the request context; the request may finish first.
		s.Dispatch(context.Background(), t, to, data)
	}()
}

package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/edforge/lms-api/internal/config"
)

type Service interface {
	SendVerification(ctx context.Context, email string, token string) error
	SendPasswordReset(ctx context.Context, email string, token string) error
	SendWelcome(ctx context.Context, email string, name string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type smtpService struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

// NewSMTPService sends mail over SMTP via gomail. baseURL is the public
// frontend origin used to build verification and reset links.
func NewSMTPService(cfg config.EmailConfig, baseURL string) Service {
	return &smtpService{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: baseURL,
	}
}

func (s *smtpService) SendVerification(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<h2>Verify your email</h2>
		<p>Welcome! Click the link below to verify your email address.</p>
		<p><a href="%s">Verify email</a></p>
		<p>The link expires in 48 hours.</p>`, link)
	return s.send(ctx, email, "Verify your email address", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<h2>Reset your password</h2>
		<p>We received a request to reset your password. Click the link
		below to choose a new one.</p>
		<p><a href="%s">Reset password</a></p>
		<p>The link expires in 1 hour. If you did not request this, you
		can ignore this email.</p>`, link)
	return s.send(ctx, email, "Password reset request", body)
}

func (s *smtpService) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Your account is verified and ready to use.</p>`, name)
	return s.send(ctx, email, "Welcome aboard", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

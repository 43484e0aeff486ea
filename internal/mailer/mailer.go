package mailer

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"storefront/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`Hi! You have registered with us. Please verify your email by clicking the link below:
{{.Link}}

The link expires in 10 minutes.

Thanks`))

var otpTmpl = htmltemplate.Must(htmltemplate.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<div style="max-width: 480px; margin: auto;">
		<h2>Password reset</h2>
		<p>Use the code below to reset your password. It expires in 10 minutes.</p>
		<p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.OTP}}</strong></p>
		<p>If you did not ask for a reset you can ignore this email.</p>
	</div>
</body>
</html>`))

// sender delivers a prepared message. *mail.Client satisfies it.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends the account emails over SMTP.
type Mailer struct {
	client    sender
	from      string
	clientURL string
	logger    *zap.Logger
}

func New(cfg config.MailConfig, clientURL string, logger *zap.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}
	return newMailer(client, cfg.From, clientURL, logger), nil
}

func newMailer(client sender, from, clientURL string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{client: client, from: from, clientURL: clientURL, logger: logger}
}

// SendVerification mails the account verification link for token.
func (m *Mailer) SendVerification(ctx context.Context, to, token string) error {
	body, err := renderVerification(m.clientURL, token)
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Email Verification", mail.TypeTextPlain, body)
}

// SendOTP mails the password reset code.
func (m *Mailer) SendOTP(ctx context.Context, to, otp string) error {
	body, err := renderOTP(otp)
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Password Reset OTP", mail.TypeTextHTML, body)
}

func (m *Mailer) send(ctx context.Context, to, subject string, ct mail.ContentType, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(ct, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func renderVerification(clientURL, token string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct{ Link string }{Link: clientURL + "/verify/" + token})
	if err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	return buf.String(), nil
}

func renderOTP(otp string) (string, error) {
	var buf bytes.Buffer
	if err := otpTmpl.Execute(&buf, struct{ OTP string }{OTP: otp}); err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}

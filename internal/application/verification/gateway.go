package verification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/infrastructure/smtp"
	"github.com/campusboard-api/internal/infrastructure/sns"
)

// CodeSender delivers a verification code to a contact address over one
// channel. Delivery failures are typed, non-fatal, and never roll back the
// stored code: the code stays redeemable and is logged as a console
// fallback so development setups work without a provider.
type CodeSender interface {
	Send(ctx context.Context, address, code string) error
}

// EmailGateway delivers codes over SMTP.
type EmailGateway struct {
	mailer smtp.Mailer
}

func NewEmailGateway(mailer smtp.Mailer) *EmailGateway {
	return &EmailGateway{mailer: mailer}
}

func (g *EmailGateway) Send(_ context.Context, address, code string) error {
	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	if err := g.mailer.SendEmail(address, "Verify your email address", body); err != nil {
		slog.Warn("email delivery failed, code stays redeemable", "address", address, "code", code, "err", err)
		return fmt.Errorf("send verification email: %w", domain.ErrDeliveryFailed)
	}
	return nil
}

// SMSGateway delivers codes over SNS. A nil sender means the SMS channel was
// never configured for this deployment: Send then fails fast without a
// network attempt, distinguishable from a transport failure so the caller
// can fall back to email.
type SMSGateway struct {
	sender sns.SMSSender
}

func NewSMSGateway(sender sns.SMSSender) *SMSGateway {
	return &SMSGateway{sender: sender}
}

func (g *SMSGateway) Send(ctx context.Context, address, code string) error {
	if g.sender == nil {
		slog.Warn("sms channel unconfigured, code stays redeemable", "address", address, "code", code)
		return fmt.Errorf("sms channel unavailable: %w", domain.ErrSMSNotConfigured)
	}
	msg := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	if err := g.sender.SendSMS(ctx, address, msg); err != nil {
		slog.Warn("sms delivery failed, code stays redeemable", "address", address, "code", code, "err", err)
		return fmt.Errorf("send verification sms: %w", domain.ErrDeliveryFailed)
	}
	return nil
}

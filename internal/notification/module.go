package notification

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/notification/inbound"
	"github.com/shandysiswandi/otpauth/internal/notification/outbound/email"
	"github.com/shandysiswandi/otpauth/internal/notification/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

type Dependency struct {
	Messaging  messaging.Broker           `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`

	// Ctx bounds the broker consumer. Without it no consumer is started.
	Ctx context.Context `validate:"-"`
}

// Module delivers login passcodes, in-process through DeliverOTP or from the
// broker when otp.delivery is "broker".
type Module struct {
	uc *usecase.Usecase
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	repoMail := email.New(dep.Mail, email.RetryOptions{
		MaxAttempts: dep.Config.GetInt("mail.retry.max_attempts"),
		BaseDelay:   dep.Config.GetMillisecond("mail.retry.base_delay_ms"),
	}, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoMail:   repoMail,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil && dep.Config.GetString("otp.delivery") == "broker" {
		inbound.RegisterMQConsumer(dep.Ctx, inbound.ConsumerConfig{
			Topic: dep.Config.GetString("otp.topic"),
			Group: dep.Config.GetString("otp.consumer_group"),
		}, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return &Module{uc: uc}, nil
}

func (m *Module) DeliverOTP(ctx context.Context, msg event.OTPIssuedMessage) error {
	return m.uc.DeliverOTP(ctx, msg)
}

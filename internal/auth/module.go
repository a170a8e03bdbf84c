package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/auth/inbound"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/cache"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/db"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/image"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/notify"
	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/keylock"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
	"github.com/shandysiswandi/otpauth/internal/pkg/storage"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

const (
	// DeliveryMail sends the passcode email within the login request.
	DeliveryMail = "mail"
	// DeliveryBroker publishes the passcode for the notification consumer.
	DeliveryBroker = "broker"

	lockPrefix = "lock:otp:"
)

// ErrUnknownDelivery indicates an unsupported otp.delivery value.
var ErrUnknownDelivery = errors.New("auth: unknown otp delivery")

// OTPDeliverer hands an issued passcode to the user.
type OTPDeliverer interface {
	DeliverOTP(ctx context.Context, msg event.OTPIssuedMessage) error
}

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Broker           `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`

	// Deliverer is required when otp.delivery is "mail".
	Deliverer OTPDeliverer
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoNotify, err := newNotifier(dep)
	if err != nil {
		return err
	}

	locker := keylock.NewRedis(dep.CacheConn, dep.UUID, keylock.Options{
		Prefix: lockPrefix,
		TTL:    dep.Config.GetMillisecond("otp.lock_ttl_ms"),
		Wait:   dep.Config.GetMillisecond("otp.lock_wait_ms"),
	})

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		RepoOTP:    cache.NewOTP(dep.CacheConn, dep.HMAC, dep.Clock, dep.Instrument),
		RepoImage:  image.NewImage(dep.Storage, dep.UUID, dep.Instrument),
		RepoNotify: repoNotify,
		Locker:     locker,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Password:   dep.Password,
		UID:        dep.UID,
		OTP:        dep.OTP,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, int64(dep.Config.GetInt("storage.max_upload_bytes")))

	return nil
}

func newNotifier(dep Dependency) (interface {
	SendOTP(ctx context.Context, msg usecase.OTPIssuedEvent) error
}, error) {
	switch mode := dep.Config.GetString("otp.delivery"); mode {
	case DeliveryMail:
		if dep.Deliverer == nil {
			return nil, fmt.Errorf("%w: %q needs a deliverer", ErrUnknownDelivery, mode)
		}
		return notify.NewDirect(dep.Deliverer, dep.Instrument), nil
	case DeliveryBroker:
		return notify.NewBroker(dep.Messaging, dep.Config.GetString("otp.topic"), dep.Instrument), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDelivery, mode)
	}
}

package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/keylock"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// dummyPassword is hashed once at startup; unknown emails are verified against
// it so both login failures cost one password check.
const dummyPassword = "otpauth-dummy-password-0"

type OTPIssuedEvent struct {
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
}

type repoDB interface {
	CreateUser(ctx context.Context, in entity.CreateUser) error
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	DeleteUser(ctx context.Context, id int64) error
}

type repoOTP interface {
	Replace(ctx context.Context, email, code string, expiresAt time.Time) error
	Consume(ctx context.Context, email, code string) (*entity.OTPRecord, error)
	Delete(ctx context.Context, email string) error
}

type repoImage interface {
	Stage(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

type repoNotify interface {
	SendOTP(ctx context.Context, msg OTPIssuedEvent) error
}

type Usecase struct {
	repoDB     repoDB
	repoOTP    repoOTP
	repoImage  repoImage
	repoNotify repoNotify
	locker     keylock.Locker
	validator  validator.Validator
	cfg        config.Config
	password   hash.Hash
	uid        uid.NumberID
	otp        otp.Generator
	clock      clock.Clocker
	jwt        jwt.JWT
	ins        instrument.Instrumentation

	dummyHash        string
	loginAttempts    metric.Int64Counter
	deliveryFailures metric.Int64Counter
}

type Dependency struct {
	RepoDB     repoDB
	RepoOTP    repoOTP
	RepoImage  repoImage
	RepoNotify repoNotify
	Locker     keylock.Locker
	Validator  validator.Validator
	Config     config.Config
	Password   hash.Hash
	UID        uid.NumberID
	OTP        otp.Generator
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:     dep.RepoDB,
		repoOTP:    dep.RepoOTP,
		repoImage:  dep.RepoImage,
		repoNotify: dep.RepoNotify,
		locker:     dep.Locker,
		validator:  dep.Validator,
		cfg:        dep.Config,
		password:   dep.Password,
		uid:        dep.UID,
		otp:        dep.OTP,
		clock:      dep.Clock,
		jwt:        dep.JWT,
		ins:        dep.Instrument,
	}

	if h, err := s.password.Hash(dummyPassword); err != nil {
		slog.Error("failed to hash dummy password", "error", err)
	} else {
		s.dummyHash = string(h)
	}

	meter := s.ins.Meter("auth.usecase")

	var err error
	s.loginAttempts, err = meter.Int64Counter("auth.login.attempts",
		metric.WithDescription("Number of password login attempts by result"))
	if err != nil {
		slog.Error("failed to create login attempts counter", "error", err)
	}
	s.deliveryFailures, err = meter.Int64Counter("auth.otp.delivery.failures",
		metric.WithDescription("Number of OTPs that could not be handed to the delivery channel"))
	if err != nil {
		slog.Error("failed to create otp delivery failures counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserSummary is the public view of an account.
type UserSummary struct {
	ID              int64
	Name            string
	Email           string
	Company         string
	Age             int
	DateOfBirth     time.Time
	ProfileImageURL string
}

func (s *Usecase) summary(u *entity.User) UserSummary {
	base := strings.TrimRight(s.cfg.GetString("storage.public_base_url"), "/")

	return UserSummary{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Company:         u.Company,
		Age:             u.Age,
		DateOfBirth:     u.DateOfBirth,
		ProfileImageURL: base + "/" + u.ProfileImage,
	}
}

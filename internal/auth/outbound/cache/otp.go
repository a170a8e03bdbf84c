package cache

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "otp:"

var errExpiresInPast = errors.New("otp expiry is not in the future")

// consumeScript returns the stored record when it is unexpired and the hash
// matches, deleting it in the same step. A wrong hash leaves the record in
// place; an expired one is removed. Misses return an integer status.
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local rec = cjson.decode(raw)
if tonumber(ARGV[2]) >= tonumber(rec.expires_at) then
	redis.call("DEL", KEYS[1])
	return -1
end
if rec.hash ~= ARGV[1] then
	return -2
end
redis.call("DEL", KEYS[1])
return raw
`)

type record struct {
	Hash      string `json:"hash"`
	ExpiresAt int64  `json:"expires_at"`
}

// OTP keeps at most one pending passcode per email. Only an HMAC of the code
// is written to Redis.
type OTP struct {
	client redis.UniversalClient
	hasher hash.Hash
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewOTP(client redis.UniversalClient, hasher hash.Hash, clk clock.Clocker, ins instrument.Instrumentation) *OTP {
	return &OTP{client: client, hasher: hasher, clock: clk, ins: ins}
}

func (o *OTP) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return o.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (o *OTP) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrOTPInvalid) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *OTP) digest(email, code string) (string, error) {
	sum, err := o.hasher.Hash(email + ":" + code)
	if err != nil {
		return "", err
	}
	return string(sum), nil
}

// Replace stores code as the only active passcode for email, overwriting any
// previous one in a single SET.
func (o *OTP) Replace(ctx context.Context, email, code string, expiresAt time.Time) (err error) {
	ctx, span := o.startSpan(ctx, "Replace")
	defer func() { o.endSpan(span, err) }()

	now := o.clock.Now()
	if (entity.OTPRecord{Email: email, ExpiresAt: expiresAt}).Expired(now) {
		err = errExpiresInPast
		return err
	}
	ttl := expiresAt.Sub(now)

	sum, err := o.digest(email, code)
	if err != nil {
		return err
	}

	val, err := json.Marshal(record{Hash: sum, ExpiresAt: expiresAt.UnixMilli()})
	if err != nil {
		return err
	}

	if err = o.client.Set(ctx, keyPrefix+email, val, ttl).Err(); err != nil {
		err = fmt.Errorf("set otp: %w", err)
		return err
	}

	return nil
}

// Consume removes and returns the record for email when code matches and has
// not expired. Every miss is reported as entity.ErrOTPInvalid.
func (o *OTP) Consume(ctx context.Context, email, code string) (_ *entity.OTPRecord, err error) {
	ctx, span := o.startSpan(ctx, "Consume")
	defer func() { o.endSpan(span, err) }()

	sum, err := o.digest(email, code)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now().UnixMilli()
	res, err := consumeScript.Run(ctx, o.client, []string{keyPrefix + email}, sum, now).Result()
	if err != nil {
		err = fmt.Errorf("consume otp: %w", err)
		return nil, err
	}

	raw, ok := res.(string)
	if !ok {
		err = entity.ErrOTPInvalid
		return nil, err
	}

	var rec record
	if err = json.Unmarshal([]byte(raw), &rec); err != nil {
		err = fmt.Errorf("decode otp record: %w", err)
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(rec.Hash), []byte(sum)) != 1 {
		err = entity.ErrOTPInvalid
		return nil, err
	}

	return &entity.OTPRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: time.UnixMilli(rec.ExpiresAt),
	}, nil
}

// Delete drops any pending passcode for email.
func (o *OTP) Delete(ctx context.Context, email string) (err error) {
	ctx, span := o.startSpan(ctx, "Delete")
	defer func() { o.endSpan(span, err) }()

	if err = o.client.Del(ctx, keyPrefix+email).Err(); err != nil {
		err = fmt.Errorf("delete otp: %w", err)
		return err
	}

	return nil
}

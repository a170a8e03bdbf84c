package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPRecord_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := OTPRecord{Email: "jane@example.com", ExpiresAt: now.Add(time.Minute)}

	assert.False(t, rec.Expired(now))
	assert.False(t, rec.Expired(now.Add(time.Minute-time.Millisecond)))
	assert.True(t, rec.Expired(now.Add(time.Minute)))
	assert.True(t, rec.Expired(now.Add(time.Hour)))
}

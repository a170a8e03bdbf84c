package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving durations stored as plain integers.
type TimeConfig interface {
	// GetMillisecond reads key as a number of milliseconds.
	GetMillisecond(key string) time.Duration

	// GetSecond reads key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute reads key as a number of minutes.
	GetMinute(key string) time.Duration

	// GetDay reads key as a number of days (24h).
	GetDay(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
//
// Missing keys and values that cannot be converted return the zero value of
// the requested type, so callers validate what is mandatory at startup.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt32(key string) int32
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary reads key as a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads key stored as <element1>,<element2>,... Blank elements are dropped.
	GetArray(key string) []string
}

package otp

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
)

const (
	// Min is the smallest code Generate returns.
	Min = 100000
	// Max is the largest code Generate returns.
	Max = 999999
	// Length is the number of digits in every code.
	Length = 6
)

// Generator produces one-time passcodes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [Min, Max].
type Numeric struct {
	src io.Reader
}

// NewNumeric returns a Numeric backed by crypto/rand.
func NewNumeric() *Numeric {
	return &Numeric{src: rand.Reader}
}

// NewNumericFrom returns a Numeric reading randomness from src. src must be
// cryptographically secure outside of tests.
func NewNumericFrom(src io.Reader) *Numeric {
	return &Numeric{src: src}
}

var span = big.NewInt(Max - Min + 1)

// Generate returns a new six digit code.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.src, span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(v.Int64()+Min, 10), nil
}

// Valid reports whether code has the shape Generate produces.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	v, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return v >= Min && v <= Max
}

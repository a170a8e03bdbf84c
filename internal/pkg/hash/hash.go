package hash

import (
	"errors"
	"fmt"
)

// Hash hashes secrets one way and verifies candidates against a stored hash.
type Hash interface {
	// Hash returns a self-describing hash of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches hashed. It never panics and returns
	// false for malformed input.
	Verify(hashed, str string) bool
}

const (
	// AlgorithmBcrypt selects Bcrypt for passwords.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects Argon2id for passwords.
	AlgorithmArgon2id = "argon2id"
)

// ErrUnknownAlgorithm indicates an unsupported password hashing algorithm.
var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

// PasswordOptions configures NewPassword.
type PasswordOptions struct {
	Algorithm  string
	BcryptCost int
	Pepper     string
}

// NewPassword returns the password hasher selected by opts.Algorithm.
func NewPassword(opts PasswordOptions) (Hash, error) {
	switch opts.Algorithm {
	case "", AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost, opts.Pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(opts.Pepper), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, opts.Algorithm)
	}
}

package db

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
)

// CreateUser inserts a new account. The unique index on email makes the
// insert the authority on duplicates: a concurrent registration of the same
// email fails with goerror.ErrConflict.
func (s *DB) CreateUser(ctx context.Context, in entity.CreateUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, company, age, date_of_birth, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		in.ID, in.Email, in.PasswordHash, in.Name, in.Company, in.Age, in.DateOfBirth, in.ProfileImage,
	)

	err = s.mapError(err)
	return err
}

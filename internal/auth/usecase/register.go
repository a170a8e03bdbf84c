package usecase

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/imaging"
)

const sniffLen = 512

type ImageUpload struct {
	File        io.Reader
	Size        int64
	ContentType string
}

type RegisterInput struct {
	Name         string       `json:"name" validate:"required,min=2,max=50,personname"`
	Email        string       `json:"email" validate:"required,email"`
	Password     string       `json:"password" validate:"required,password"`
	Company      string       `json:"company" validate:"required,min=2,max=100"`
	Age          int          `json:"age" validate:"required,min=1,max=150"`
	DateOfBirth  string       `json:"date_of_birth" validate:"required,dateonly"`
	ProfileImage *ImageUpload `json:"profile_image" validate:"-"`
}

type RegisterOutput struct {
	ID    int64
	Name  string
	Email string
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Company = strings.TrimSpace(in.Company)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	dob, err := time.Parse(entity.DateLayout, in.DateOfBirth)
	if err != nil {
		return nil, goerror.NewInvalidInput(nil, "date_of_birth", "date_of_birth must be a valid past date in YYYY-MM-DD format")
	}

	image, err := s.checkImage(in.ProfileImage)
	if err != nil {
		return nil, err
	}

	exists, err := s.repoDB.ExistsByEmail(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check email exists", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if exists {
		slog.WarnContext(ctx, "registration with existing email", "email", in.Email)
		return nil, entity.ErrDuplicateEmail
	}

	hashed, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	key, err := s.repoImage.Stage(ctx, image)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooManyPixels) {
		slog.WarnContext(ctx, "profile image rejected", "email", in.Email, "error", err)
		return nil, entity.ErrProfileImageInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to stage profile image", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.CreateUser{
		ID:           s.uid.Generate(),
		Email:        in.Email,
		PasswordHash: string(hashed),
		Name:         in.Name,
		Company:      in.Company,
		Age:          in.Age,
		DateOfBirth:  dob,
		ProfileImage: key,
	}

	if err := s.repoDB.CreateUser(ctx, user); err != nil {
		s.discardImage(ctx, key)

		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "registration lost race on email", "email", in.Email)
			return nil, entity.ErrDuplicateEmail
		}

		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}, nil
}

// checkImage rejects a missing upload, one over the size limit, or content
// that is not an accepted image, and returns a reader over the full upload.
func (s *Usecase) checkImage(up *ImageUpload) (io.Reader, error) {
	if up == nil || up.File == nil {
		return nil, entity.ErrProfileImageRequired
	}

	maxBytes := int64(s.cfg.GetInt("storage.max_upload_bytes"))
	if up.Size > maxBytes {
		return nil, entity.ErrProfileImageInvalid
	}

	if ct := strings.ToLower(strings.TrimSpace(up.ContentType)); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, entity.ErrProfileImageInvalid
	}

	br := bufio.NewReaderSize(up.File, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, entity.ErrProfileImageInvalid
	}
	if _, ok := imaging.Sniff(head); !ok {
		return nil, entity.ErrProfileImageInvalid
	}

	return io.LimitReader(br, maxBytes), nil
}

// discardImage removes a staged image whose account was not created.
func (s *Usecase) discardImage(ctx context.Context, key string) {
	if err := s.repoImage.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.ErrorContext(ctx, "failed to delete staged profile image", "key", key, "error", err)
	}
}

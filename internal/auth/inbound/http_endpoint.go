package inbound

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

// The multipart body may exceed the image limit so an oversized image still
// reaches the usecase and gets its own error; past this bound the parse fails.
const (
	multipartFieldsBytes = 1 << 20
	multipartMemoryBytes = 8 << 20
)

// HTTPEndpoint exposes HTTP handlers for registration, the OTP login flow and
// the account of the authenticated user.
type HTTPEndpoint struct {
	uc             uc
	maxUploadBytes int64
}

// Register creates an account from a multipart form with a profile image.
// @Summary Register user
// @Description Creates an account. The profile image is cropped to 500x500 and stored as JPEG.
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Full name"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param company formData string true "Company"
// @Param age formData int true "Age"
// @Param date_of_birth formData string true "Date of birth (YYYY-MM-DD)"
// @Param profile_image formData file true "Profile image (jpeg, png, gif, webp; max 5 MiB)"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered"
// @Failure 400 {object} router.errorResponse "Duplicate email, invalid image or validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	ctx := r.Context()

	if err := r.ParseMultipart(2*h.maxUploadBytes+multipartFieldsBytes, multipartMemoryBytes); err != nil {
		return nil, err
	}

	var age int
	if v := r.FormString("age"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, goerror.NewInvalidInput(nil, "age", "age must be a number")
		}
		age = n
	}

	in := usecase.RegisterInput{
		Name:        r.FormString("name"),
		Email:       r.FormString("email"),
		Password:    r.FormString("password"),
		Company:     r.FormString("company"),
		Age:         age,
		DateOfBirth: r.FormString("date_of_birth", "dateOfBirth"),
	}

	fh, err := r.UploadedFile("profile_image", "profileImage")
	if err != nil && !errors.Is(err, router.ErrFileMissing) {
		return nil, goerror.NewInvalidFormat()
	}
	if fh != nil {
		file, err := fh.Open()
		if err != nil {
			slog.ErrorContext(ctx, "failed to open uploaded file", "error", err)
			return nil, goerror.NewServer(err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close file", "error", err)
			}
		}()

		in.ProfileImage = &usecase.ImageUpload{
			File:        file,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}

	resp, err := h.uc.Register(ctx, in)
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		ID:    strconv.FormatInt(resp.ID, 10),
		Name:  resp.Name,
		Email: resp.Email,
	}, nil
}

// Login checks the password and emails a one-time passcode.
// @Summary Start login
// @Description Validates credentials and sends a 6 digit OTP valid for 10 minutes to the account email.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		Email: resp.Email,
		OTP:   resp.OTP,
	}, nil
}

// VerifyOTP exchanges a valid passcode for a session token.
// @Summary Complete login
// @Description Consumes the pending OTP of the email and returns a JWT valid for 7 days.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Login successful"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 401 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email: req.Email,
		OTP:   req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Token: resp.Token,
		User:  newUserResponse(resp.User),
	}, nil
}

// Profile returns the authenticated user.
// @Summary Get profile
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{User: newUserResponse(*resp)}, nil
}

// DeleteAccount removes the authenticated user, its image and pending OTP.
// @Summary Delete account
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=DeleteAccountResponse} "Account deleted"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/account [delete]
func (h *HTTPEndpoint) DeleteAccount(r *router.Request) (any, error) {
	if err := h.uc.DeleteAccount(r.Context()); err != nil {
		return nil, err
	}

	return DeleteAccountResponse{}, nil
}

package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

type fakeVerifier struct{}

func (fakeVerifier) Generate(int64, string) (string, error) { return "", nil }

func (fakeVerifier) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 7, UserEmail: "jane@example.com"}, nil
}

var summary = usecase.UserSummary{
	ID:              1234567890123,
	Name:            "Jane Doe",
	Email:           "jane@example.com",
	Company:         "Acme",
	Age:             30,
	DateOfBirth:     time.Date(1996, 2, 29, 0, 0, 0, 0, time.UTC),
	ProfileImageURL: "/uploads/a.jpg",
}

type fakeUC struct {
	register  usecase.RegisterInput
	imageBody []byte
	login     usecase.LoginInput
	verify    usecase.VerifyOTPInput
	claims    *jwt.Claims
	err       error
}

func (f *fakeUC) Register(_ context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	f.register = in
	if in.ProfileImage != nil {
		f.imageBody, _ = io.ReadAll(in.ProfileImage.File)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RegisterOutput{ID: 1234567890123, Name: in.Name, Email: in.Email}, nil
}

func (f *fakeUC) Login(_ context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	f.login = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.LoginOutput{Email: in.Email, OTP: "123456"}, nil
}

func (f *fakeUC) VerifyOTP(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	f.verify = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.VerifyOTPOutput{Token: "signed", User: summary}, nil
}

func (f *fakeUC) Profile(ctx context.Context) (*usecase.UserSummary, error) {
	f.claims = jwt.GetAuth(ctx)
	if f.err != nil {
		return nil, f.err
	}
	out := summary
	return &out, nil
}

func (f *fakeUC) DeleteAccount(ctx context.Context) error {
	f.claims = jwt.GetAuth(ctx)
	return f.err
}

func newTestServer(t *testing.T, uc *fakeUC) http.Handler {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {maintenance: false}"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       staticID("cid-1"),
		JWT:        fakeVerifier{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc, 5<<20)

	return r
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func do(t *testing.T, h http.Handler, req *http.Request) (int, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "me.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/auth/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHTTPEndpoint_Register(t *testing.T) {
	fields := map[string]string{
		"name":        "Jane Doe",
		"email":       "jane@example.com",
		"password":    "Secret123",
		"company":     "Acme",
		"age":         "30",
		"dateOfBirth": "1996-02-29",
	}

	t.Run("Created", func(t *testing.T) {
		uc := &fakeUC{}
		code, env := do(t, newTestServer(t, uc), multipartRequest(t, fields, "profileImage", []byte("image-bytes")))

		assert.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "User registered successfully", env.Message)
		assert.JSONEq(t, `{"id":"1234567890123","name":"Jane Doe","email":"jane@example.com"}`, string(env.Data))

		assert.Equal(t, 30, uc.register.Age)
		assert.Equal(t, "1996-02-29", uc.register.DateOfBirth)
		require.NotNil(t, uc.register.ProfileImage)
		assert.EqualValues(t, len("image-bytes"), uc.register.ProfileImage.Size)
		assert.Equal(t, []byte("image-bytes"), uc.imageBody)
	})

	t.Run("NoImage", func(t *testing.T) {
		uc := &fakeUC{err: entity.ErrProfileImageRequired}
		code, env := do(t, newTestServer(t, uc), multipartRequest(t, fields, "", nil))

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Profile image is required", env.Message)
		assert.Nil(t, uc.register.ProfileImage)
	})

	t.Run("Duplicate", func(t *testing.T) {
		uc := &fakeUC{err: entity.ErrDuplicateEmail}
		code, env := do(t, newTestServer(t, uc), multipartRequest(t, fields, "profile_image", []byte("x")))

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "User already exists with this email", env.Message)
	})

	t.Run("BadAge", func(t *testing.T) {
		bad := map[string]string{"age": "thirty"}
		code, env := do(t, newTestServer(t, &fakeUC{}), multipartRequest(t, bad, "", nil))

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, env.Error, "age")
	})

	t.Run("NotMultipart", func(t *testing.T) {
		code, _ := do(t, newTestServer(t, &fakeUC{}), jsonRequest(http.MethodPost, "/auth/register", `{}`))
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestHTTPEndpoint_Login(t *testing.T) {
	uc := &fakeUC{}
	srv := newTestServer(t, uc)

	code, env := do(t, srv, jsonRequest(http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"Secret123"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OTP sent to your email", env.Message)
	assert.JSONEq(t, `{"email":"jane@example.com","otp":"123456"}`, string(env.Data))
	assert.Equal(t, "Secret123", uc.login.Password)

	uc.err = entity.ErrAuthenticationFailed
	code, env = do(t, srv, jsonRequest(http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"x"}`))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Sorry, we can't log you in.", env.Message)

	code, _ = do(t, srv, jsonRequest(http.MethodPost, "/auth/login", `{"email":"jane@example.com","extra":1}`))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHTTPEndpoint_VerifyOTP(t *testing.T) {
	uc := &fakeUC{}
	srv := newTestServer(t, uc)

	code, env := do(t, srv, jsonRequest(http.MethodPost, "/auth/verify-otp", `{"email":"jane@example.com","otp":"123456"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", env.Message)
	assert.JSONEq(t, `{
		"token": "signed",
		"user": {
			"id": "1234567890123",
			"name": "Jane Doe",
			"email": "jane@example.com",
			"company": "Acme",
			"age": 30,
			"date_of_birth": "1996-02-29",
			"profile_image": "/uploads/a.jpg"
		}
	}`, string(env.Data))
	assert.Equal(t, "123456", uc.verify.OTP)

	uc.err = entity.ErrOTPInvalid
	code, env = do(t, srv, jsonRequest(http.MethodPost, "/auth/verify-otp", `{"email":"jane@example.com","otp":"000000"}`))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired OTP", env.Message)

	uc.err = entity.ErrUserNotFound
	code, _ = do(t, srv, jsonRequest(http.MethodPost, "/auth/verify-otp", `{"email":"jane@example.com","otp":"123456"}`))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHTTPEndpoint_Protected(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		ucErr  error
		code   int
		msg    string
	}{
		{name: "ProfileNoToken", method: http.MethodGet, path: "/auth/profile", code: http.StatusUnauthorized, msg: "Authentication required"},
		{name: "ProfileBadToken", method: http.MethodGet, path: "/auth/profile", auth: "Bearer bad", code: http.StatusUnauthorized, msg: "Invalid or expired token"},
		{name: "Profile", method: http.MethodGet, path: "/auth/profile", auth: "Bearer good", code: http.StatusOK, msg: "Profile retrieved successfully"},
		{name: "ProfileGone", method: http.MethodGet, path: "/auth/profile", auth: "Bearer good", ucErr: entity.ErrUserNotFound, code: http.StatusNotFound, msg: "User not found"},
		{name: "DeleteNoToken", method: http.MethodDelete, path: "/auth/account", code: http.StatusUnauthorized, msg: "Authentication required"},
		{name: "Delete", method: http.MethodDelete, path: "/auth/account", auth: "Bearer good", code: http.StatusOK, msg: "Account deleted successfully"},
		{name: "DeleteServerError", method: http.MethodDelete, path: "/auth/account", auth: "Bearer good", ucErr: goerror.NewServer(assert.AnError), code: http.StatusInternalServerError, msg: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUC{err: tt.ucErr}
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			code, env := do(t, newTestServer(t, uc), req)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, env.Message)

			if tt.auth == "Bearer good" {
				require.NotNil(t, uc.claims)
				assert.Equal(t, int64(7), uc.claims.UserID)
			}
		})
	}
}

package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
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
	return jwt.Claims{UserID: 7, UserEmail: "a@x.com"}, nil
}

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "User registered successfully" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return NewRouter(Config{
		Config:     cfg,
		UUID:       staticID("cid-1"),
		JWT:        fakeVerifier{},
		Instrument: instrument.NewNoop(),
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Envelope(t *testing.T) {
	r := newTestRouter(t, "app: {maintenance: false}")
	r.POST("/created", func(*Request) (any, error) { return created{ID: "1"}, nil })
	r.GET("/plain", func(*Request) (any, error) { return map[string]string{"k": "v"}, nil })
	r.GET("/business", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	})
	r.GET("/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "email", "email is required")
	})
	r.GET("/raw", func(*Request) (any, error) { return nil, errors.New("db down") })
	r.GET("/panic", func(*Request) (any, error) { panic("boom") })

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		message string
		check   func(t *testing.T, body map[string]any)
	}{
		{
			name: "created", method: http.MethodPost, path: "/created", status: http.StatusCreated,
			message: "User registered successfully",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, map[string]any{"id": "1"}, body["data"])
			},
		},
		{
			name: "default message", method: http.MethodGet, path: "/plain", status: http.StatusOK,
			message: "request has been successfully",
		},
		{name: "business", method: http.MethodGet, path: "/business", status: http.StatusNotFound, message: "User not found"},
		{
			name: "fields", method: http.MethodGet, path: "/fields", status: http.StatusBadRequest,
			message: "Validation error",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, map[string]any{"email": "email is required"}, body["error"])
			},
		},
		{name: "raw error", method: http.MethodGet, path: "/raw", status: http.StatusInternalServerError, message: "Internal server error"},
		{name: "panic", method: http.MethodGet, path: "/panic", status: http.StatusInternalServerError, message: "Internal server error"},
		{name: "not found", method: http.MethodGet, path: "/missing", status: http.StatusNotFound, message: "endpoint not found"},
		{name: "method not allowed", method: http.MethodDelete, path: "/plain", status: http.StatusMethodNotAllowed, message: "method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.message, body["message"])
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	r := newTestRouter(t, "app: {maintenance: false}")
	r.GET("/cid", func(req *Request) (any, error) {
		return map[string]string{"cid": instrument.GetCorrelationID(req.Context())}, nil
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cid", nil))
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))

	req := httptest.NewRequest(http.MethodGet, "/cid", nil)
	req.Header.Set(HeaderRequestID, "from-proxy")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "from-proxy", rec.Header().Get(HeaderCorrelationID))
	assert.Equal(t, map[string]any{"cid": "from-proxy"}, decode(t, rec)["data"])
}

func TestRouter_Authenticated(t *testing.T) {
	r := newTestRouter(t, "app: {maintenance: false}")
	r.GET("/me", func(req *Request) (any, error) {
		c := jwt.GetAuth(req.Context())
		return map[string]any{"uid": c.UserID}, nil
	}, r.Authenticated())

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized, message: "Authentication required"},
		{name: "malformed", header: "Token good", status: http.StatusUnauthorized, message: "Authentication required"},
		{name: "invalid", header: "Bearer bad", status: http.StatusUnauthorized, message: "Invalid or expired token"},
		{name: "valid", header: "bearer good", status: http.StatusOK, message: "request has been successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec)["message"])
		})
	}
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app: {maintenance: true}")
	r.GET("/healthz", func(*Request) (any, error) { return map[string]string{"status": "ok"}, nil })
	r.POST("/auth/login", func(*Request) (any, error) { return map[string]string{}, nil })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service is under maintenance", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Files(t *testing.T) {
	r := newTestRouter(t, "app: {maintenance: false}")
	r.Files("/uploads", fstest.MapFS{
		"a.jpg":        {Data: []byte("jpeg")},
		"nested/b.jpg": {Data: []byte("b")},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/nested/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com"}`))}
	require.NoError(t, req.DecodeBody(&dst))
	assert.Equal(t, "a@x.com", dst.Email)

	for _, body := range []string{`{"email":"a@x.com","extra":1}`, `{"email":"a"}{}`, `not json`} {
		req = &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))}
		err := req.DecodeBody(&dst)
		gerr, ok := goerror.As(err)
		require.True(t, ok, body)
		assert.Equal(t, http.StatusBadRequest, gerr.StatusCode())
	}
}

func TestRequest_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("dateOfBirth", " 1990-01-02 "))
	require.NoError(t, mw.WriteField("name", "Jane"))
	fw, err := mw.CreateFormFile("profileImage", "me.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	hr := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf.Bytes()))
	hr.Header.Set("Content-Type", mw.FormDataContentType())
	req := &Request{Request: hr}

	require.NoError(t, req.ParseMultipart(1<<20, 1<<20))
	assert.Equal(t, "1990-01-02", req.FormString("date_of_birth", "dateOfBirth"))
	assert.Equal(t, "Jane", req.FormString("name"))
	assert.Empty(t, req.FormString("company"))

	fh, err := req.UploadedFile("profile_image", "profileImage")
	require.NoError(t, err)
	assert.Equal(t, "me.png", fh.Filename)
	assert.EqualValues(t, len("png-bytes"), fh.Size)

	_, err = req.UploadedFile("avatar")
	assert.ErrorIs(t, err, ErrFileMissing)

	small := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf.Bytes()))
	small.Header.Set("Content-Type", mw.FormDataContentType())
	assert.Error(t, (&Request{Request: small}).ParseMultipart(10, 1<<20))

	plain := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))}
	assert.Error(t, plain.ParseMultipart(1<<20, 1<<20))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestNormalizeCID(t *testing.T) {
	assert.Equal(t, "abc-123", normalizeCID(" abc-123 "))
	assert.Empty(t, normalizeCID("bad\r\nheader"))
	assert.Empty(t, normalizeCID("with space"))
	assert.Len(t, normalizeCID(strings.Repeat("a", 300)), maxCorrelationIDLen)
}

func TestBodyMasker(t *testing.T) {
	m := bodyMasker{"password": {}, "otp": {}, "authorization": {}}

	got := m.body("application/json", []byte(`{"email":"a@x.com","password":"Secret1","data":{"otp":"123456"}}`), false)
	assert.Equal(t, map[string]any{
		"email":    "a@x.com",
		"password": "***",
		"data":     map[string]any{"otp": "***"},
	}, got)

	assert.Equal(t, "<multipart body omitted>", m.body("multipart/form-data; boundary=x", []byte("password=x"), false))

	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("Cookie", "s=1")
	masked := m.headers(h)
	assert.Equal(t, "***", masked.Get("Authorization"))
	assert.Empty(t, masked.Get("Cookie"))
}

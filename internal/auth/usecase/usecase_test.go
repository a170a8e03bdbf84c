package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/cache"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/keylock"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeDB struct {
	mu    sync.Mutex
	users map[int64]*entity.User

	errGet    error
	errExists error
	errCreate error
	errDelete error
	// skipExists makes ExistsByEmail report false so the insert is the
	// first place a duplicate is noticed.
	skipExists bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: map[int64]*entity.User{}}
}

func (f *fakeDB) CreateUser(_ context.Context, in entity.CreateUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errCreate != nil {
		return f.errCreate
	}
	for _, u := range f.users {
		if u.Email == in.Email {
			return goerror.ErrConflict
		}
	}
	f.users[in.ID] = &entity.User{
		ID:           in.ID,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Name:         in.Name,
		Company:      in.Company,
		Age:          in.Age,
		DateOfBirth:  in.DateOfBirth,
		ProfileImage: in.ProfileImage,
	}
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errGet != nil {
		return nil, f.errGet
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errGet != nil {
		return nil, f.errGet
	}
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errExists != nil {
		return false, f.errExists
	}
	if f.skipExists {
		return false, nil
	}
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errDelete != nil {
		return f.errDelete
	}
	if _, ok := f.users[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeImage struct {
	mu      sync.Mutex
	seq     int
	stored  map[string][]byte
	deleted []string

	errStage  error
	errDelete error
}

func newFakeImage() *fakeImage {
	return &fakeImage{stored: map[string][]byte{}}
}

func (f *fakeImage) Stage(_ context.Context, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errStage != nil {
		return "", f.errStage
	}
	f.seq++
	key := fmt.Sprintf("img-%d.jpg", f.seq)
	f.stored[key] = body
	return key, nil
}

func (f *fakeImage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, key)
	if f.errDelete != nil {
		return f.errDelete
	}
	delete(f.stored, key)
	return nil
}

func (f *fakeImage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeNotify struct {
	mu   sync.Mutex
	sent []OTPIssuedEvent
	err  error
}

func (f *fakeNotify) SendOTP(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotify) last() OTPIssuedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type sequenceOTP struct {
	mu    sync.Mutex
	codes []string
}

func (s *sequenceOTP) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.codes) == 0 {
		return "", errors.New("no more codes")
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

const testConfig = `
app:
  env: development
storage:
  public_base_url: http://localhost:8080/uploads/
`

type harness struct {
	uc     *Usecase
	db     *fakeDB
	image  *fakeImage
	notify *fakeNotify
	otp    *cache.OTP
	redis  *miniredis.Miniredis
	clock  *clock.Fixed
	jwt    jwt.JWT
}

type harnessOption func(*Dependency)

func withOTP(gen otp.Generator) harnessOption {
	return func(d *Dependency) { d.OTP = gen }
}

func withConfig(t *testing.T, yaml string) harnessOption {
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	return func(d *Dependency) { d.Config = cfg }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	ins := instrument.NewNoop()

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("s", jwt.MinSecretLength)),
		Issuer:    "otpauth",
		Audiences: []string{"otpauth"},
		TTL:       7 * 24 * time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	h := &harness{
		db:     newFakeDB(),
		image:  newFakeImage(),
		notify: &fakeNotify{},
		otp:    cache.NewOTP(client, hash.NewHMACSHA256("otp-secret"), clk, ins),
		redis:  mr,
		clock:  clk,
		jwt:    tokens,
	}

	dep := Dependency{
		RepoDB:     h.db,
		RepoOTP:    h.otp,
		RepoImage:  h.image,
		RepoNotify: h.notify,
		Locker:     keylock.NewRedis(client, uid.NewUUID(), keylock.Options{Prefix: "lock:otp:"}),
		Validator:  v,
		Config:     cfg,
		Password:   hash.NewBcrypt(bcrypt.MinCost, ""),
		UID:        sf,
		OTP:        otp.NewNumeric(),
		Clock:      clk,
		JWT:        tokens,
		Instrument: ins,
	}
	for _, opt := range opts {
		opt(&dep)
	}

	h.uc = New(dep)
	return h
}

func pngImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (h *harness) registerInput(t *testing.T, email string) RegisterInput {
	t.Helper()

	body := pngImage(t)
	return RegisterInput{
		Name:        "Jane Doe",
		Email:       email,
		Password:    "Secret123",
		Company:     "Acme",
		Age:         30,
		DateOfBirth: "1996-02-29",
		ProfileImage: &ImageUpload{
			File:        bytes.NewReader(body),
			Size:        int64(len(body)),
			ContentType: "image/png",
		},
	}
}

// login runs a successful password login and returns the delivered code.
func (h *harness) login(t *testing.T, email, password string) string {
	t.Helper()

	_, err := h.uc.Login(context.Background(), LoginInput{Email: email, Password: password})
	require.NoError(t, err)
	return h.notify.last().Code
}

func (h *harness) authContext(t *testing.T, token string) context.Context {
	t.Helper()

	clm, err := h.jwt.Verify(token)
	require.NoError(t, err)
	return jwt.SetAuth(context.Background(), clm)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	gerr, ok := goerror.As(err)
	require.True(t, ok, "expected goerror, got %v", err)
	require.Equal(t, status, gerr.StatusCode())
}

package image

import (
	"bytes"
	"context"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shandysiswandi/otpauth/internal/pkg/imaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImage_StageAndDelete(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocal(storage.LocalOptions{Dir: dir})
	require.NoError(t, err)

	img := NewImage(local, staticID("0196f1f4-4e3c-7a1b-9c55-3b1d2c3e4f50"), instrument.NewNoop())
	ctx := context.Background()

	key, err := img.Stage(ctx, bytes.NewReader(pngBytes(t, 640, 320)))
	require.NoError(t, err)
	assert.Equal(t, "0196f1f4-4e3c-7a1b-9c55-3b1d2c3e4f50.jpg", key)

	stored, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	ct, ok := imaging.Sniff(stored)
	assert.True(t, ok)
	assert.Equal(t, imaging.ContentType, ct)

	require.NoError(t, img.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, img.Delete(ctx, key))
}

func TestImage_StageRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocal(storage.LocalOptions{Dir: dir})
	require.NoError(t, err)

	img := NewImage(local, staticID("x"), instrument.NewNoop())

	_, err = img.Stage(context.Background(), bytes.NewReader([]byte("just some text")))
	assert.ErrorIs(t, err, imaging.ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

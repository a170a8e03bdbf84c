package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shandysiswandi/otpauth/internal/pkg/imaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/storage"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Image stages normalized profile pictures in the object store.
type Image struct {
	store storage.Storage
	uuid  uid.StringID
	ins   instrument.Instrumentation
}

func NewImage(store storage.Storage, uuid uid.StringID, ins instrument.Instrumentation) *Image {
	return &Image{store: store, uuid: uuid, ins: ins}
}

func (i *Image) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return i.ins.Tracer("auth.outbound.image").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Stage decodes r, normalizes it to a square JPEG and stores it under a new
// key, which is returned. Content that is not an accepted image fails with
// imaging.ErrUnsupportedFormat or imaging.ErrTooManyPixels.
func (i *Image) Stage(ctx context.Context, r io.Reader) (_ string, err error) {
	ctx, span := i.startSpan(ctx, "Stage")
	defer func() { endSpan(span, err) }()

	body, err := imaging.Normalize(r)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooManyPixels) {
			return "", err
		}
		return "", fmt.Errorf("normalize image: %w", err)
	}

	key := i.uuid.Generate() + ".jpg"
	if err = i.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), imaging.ContentType); err != nil {
		return "", fmt.Errorf("put image %q: %w", key, err)
	}

	return key, nil
}

// Delete removes a staged image. Missing keys are not an error.
func (i *Image) Delete(ctx context.Context, key string) (err error) {
	ctx, span := i.startSpan(ctx, "Delete")
	defer func() { endSpan(span, err) }()

	if err = i.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete image %q: %w", key, err)
	}

	return nil
}

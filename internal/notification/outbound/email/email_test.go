package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
)

type flakyMail struct {
	failures int
	err      error
	calls    int
}

func (f *flakyMail) Send(context.Context, mail.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyMail) Close() error { return nil }

func TestMail_Send(t *testing.T) {
	errDial := errors.New("smtp dial: timeout")
	msg := mail.Message{To: []string{"jane@example.com"}, Subject: "s", HTMLBody: "b"}
	opts := RetryOptions{MaxAttempts: 3, BaseDelay: time.Millisecond}

	tests := []struct {
		name      string
		client    *flakyMail
		wantErr   error
		wantCalls int
	}{
		{name: "FirstTry", client: &flakyMail{}, wantCalls: 1},
		{name: "RecoversOnRetry", client: &flakyMail{failures: 2, err: errDial}, wantCalls: 3},
		{name: "GivesUp", client: &flakyMail{failures: 5, err: errDial}, wantErr: errDial, wantCalls: 3},
		{name: "NoRetryOnBadMessage", client: &flakyMail{failures: 5, err: mail.ErrSMTPNoSender}, wantErr: mail.ErrSMTPNoSender, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.client, opts, instrument.NewNoop()).Send(context.Background(), msg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, tt.client.calls)
		})
	}
}

func TestMail_SendSingleAttempt(t *testing.T) {
	client := &flakyMail{failures: 1, err: errors.New("boom")}

	err := New(client, RetryOptions{}, instrument.NewNoop()).Send(context.Background(), mail.Message{To: []string{"a@x.com"}})
	assert.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

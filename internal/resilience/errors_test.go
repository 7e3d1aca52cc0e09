package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain_error", err: errors.New("boom"), want: false},
		{name: "transient", err: NewTransientError(errors.New("rate limited"), 429), want: true},
		{name: "wrapped_transient", err: eris.Wrap(NewTransientError(errors.New("unavailable"), 503), "llm: send"), want: true},
		{name: "auth_not_transient", err: NewAuthError(errors.New("invalid key"), 401), want: false},
		{name: "unsupported_not_transient", err: NewUnsupportedFeatureError(errors.New("no json mode"), "response_format"), want: false},
		{name: "timeout_string", err: fmt.Errorf("read tcp: i/o timeout"), want: true},
		{name: "deadline_string", err: fmt.Errorf("Post \"x\": context deadline exceeded"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(NewAuthError(errors.New("forbidden"), 403)))
	assert.True(t, IsAuth(eris.Wrap(NewAuthError(errors.New("forbidden"), 403), "llm: call")))
	assert.False(t, IsAuth(NewTransientError(errors.New("oops"), 500)))
	assert.False(t, IsAuth(nil))
}

func TestIsUnsupportedFeature(t *testing.T) {
	err := NewUnsupportedFeatureError(errors.New("response_format not available"), "response_format")
	assert.True(t, IsUnsupportedFeature(err))
	assert.True(t, IsUnsupportedFeature(eris.Wrap(err, "llm: call")))
	assert.False(t, IsUnsupportedFeature(errors.New("other")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

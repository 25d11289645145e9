package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit status", errors.New("googleapi: Error 429: Too Many Requests"), true},
		{"resource exhausted", errors.New("rpc error: code = RESOURCE_EXHAUSTED"), true},
		{"quota", errors.New("quota exceeded for model"), true},
		{"server error", errors.New("Error 503: Service Unavailable"), true},
		{"internal", errors.New("rpc error: code = INTERNAL desc = broken"), true},
		{"auth failure", errors.New("Error 401: API key not valid"), false},
		{"bad request", errors.New("Error 400: invalid argument"), false},
		{"empty reply", ErrEmptyReply, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryable(tc.err); got != tc.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	wrapped := fmt.Errorf("calling model: %w", context.DeadlineExceeded)
	if !isTimeout(wrapped) {
		t.Error("wrapped deadline should classify as timeout")
	}
	if isTimeout(errors.New("Error 504: upstream deadline")) {
		t.Error("plain message should not classify as context timeout")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &UpstreamError{Err: cause, Timeout: true}

	if !errors.Is(err, cause) {
		t.Error("UpstreamError should unwrap to its cause")
	}

	var ue *UpstreamError
	if !errors.As(error(err), &ue) {
		t.Fatal("errors.As should match *UpstreamError")
	}
	if !ue.Timeout {
		t.Error("Timeout flag lost through errors.As")
	}
}

package slideimage

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceWrite(cause).WithSlide("slide-1")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause must be reachable through errors.Is")
	}
	if err.SlideID != "slide-1" {
		t.Errorf("slide id = %q", err.SlideID)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, want the cause included", err.Error())
	}
}

func TestIsRateLimited(t *testing.T) {
	rateLimited := NewRateLimited("")
	wrapped := fmt.Errorf("generate: %w", rateLimited)

	if !IsRateLimited(rateLimited) {
		t.Error("rate-limit error not recognized")
	}
	if !IsRateLimited(wrapped) {
		t.Error("wrapped rate-limit error not recognized")
	}
	if IsRateLimited(NewProviderError("boom")) {
		t.Error("provider error misclassified as rate limited")
	}
	if IsRateLimited(errors.New("plain")) {
		t.Error("plain error misclassified as rate limited")
	}
}

func TestRateLimitedDefaultMessageMentionsWaiting(t *testing.T) {
	err := NewRateLimited("")
	if !strings.Contains(err.Message, "wait") {
		t.Errorf("default message %q must tell the user to wait", err.Message)
	}
	custom := NewRateLimited("quota exhausted, try again in a minute")
	if custom.Message != "quota exhausted, try again in a minute" {
		t.Errorf("explicit message was not preserved: %q", custom.Message)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", NewRateLimited(""), ErrCodeRateLimited},
		{"provider", NewProviderError(""), ErrCodeProviderError},
		{"persistence write", NewPersistenceWrite(errors.New("x")), ErrCodePersistenceWrite},
		{"persistence read", NewPersistenceRead(errors.New("x")), ErrCodePersistenceRead},
		{"wrapped", fmt.Errorf("outer: %w", NewRateLimited("")), ErrCodeRateLimited},
		{"foreign error", errors.New("plain"), ErrCodeProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

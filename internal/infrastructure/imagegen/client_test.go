package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"presentation-server/internal/domain/slideimage"
)

func TestGenerateSuccess(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/presentations/generate-slide-image" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"image": map[string]any{
				"base64":   base64.StdEncoding.EncodeToString([]byte("pixels")),
				"mimeType": "image/png",
				"width":    1024,
				"height":   768,
			},
			"provider": "gemini",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Generate(context.Background(), "a castle")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotBody["imagePrompt"] != "a castle" {
		t.Errorf("request prompt = %q", gotBody["imagePrompt"])
	}
	if string(result.Data) != "pixels" {
		t.Errorf("data = %q", result.Data)
	}
	if result.MimeType != "image/png" || result.Width != 1024 || result.Height != 768 {
		t.Errorf("result = %+v", result)
	}
	if result.Provider != "gemini" {
		t.Errorf("provider = %q", result.Provider)
	}
}

func TestGenerateRateLimitPreservesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "slow down, try again in 30s"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Generate(context.Background(), "a castle")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !slideimage.IsRateLimited(err) {
		t.Fatalf("error %v not classified as rate limited", err)
	}
	var perr *slideimage.PipelineError
	if !errors.As(err, &perr) || perr.Message != "slow down, try again in 30s" {
		t.Errorf("message not preserved: %v", err)
	}
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "provider exploded"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Generate(context.Background(), "a castle")
	if err == nil {
		t.Fatal("expected an error")
	}
	if slideimage.IsRateLimited(err) {
		t.Error("5xx must not classify as rate limited")
	}
	if slideimage.ErrorCode(err) != slideimage.ErrCodeProviderError {
		t.Errorf("code = %q, want provider error", slideimage.ErrorCode(err))
	}
}

func TestGenerateRejectsEmptyImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"image":    map[string]any{"base64": ""},
			"provider": "gemini",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Generate(context.Background(), "a castle"); err == nil {
		t.Fatal("empty image payload must be an error")
	}
}

func TestGenerateUnreachableService(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)
	if _, err := client.Generate(context.Background(), "a castle"); err == nil {
		t.Fatal("expected a transport error")
	}
}

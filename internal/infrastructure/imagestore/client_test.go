package imagestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"presentation-server/internal/domain/slideimage"
)

func TestQuerySendsFilterAsParams(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/presentations/save-slide-image" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"slideImages": []map[string]any{
				{"id": "img_1", "imagePrompt": "a castle", "sessionId": "s1"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	rows, err := client.Query(context.Background(), slideimage.Filter{
		SessionID: "s1",
		Prompt:    "a castle",
		UserID:    "u1",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if gotQuery["sessionId"] != "s1" || gotQuery["imagePrompt"] != "a castle" || gotQuery["userId"] != "u1" {
		t.Errorf("query params = %v", gotQuery)
	}
	if _, ok := gotQuery["slideId"]; ok {
		t.Error("empty filter fields must not be sent")
	}
	if len(rows) != 1 || rows[0].ID != "img_1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestQuerySurfacesStoreError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database down"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Query(context.Background(), slideimage.Filter{SessionID: "s1"}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSavePostsParams(t *testing.T) {
	var got slideimage.SaveParams
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/presentations/save-slide-image" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"slideImage": map[string]any{"id": "img_9", "imagePrompt": got.Prompt},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	row, err := client.Save(context.Background(), slideimage.SaveParams{
		SlideID:   "slide-1",
		Prompt:    "a castle",
		MimeType:  "image/png",
		Data:      []byte("pixels"),
		SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if got.Prompt != "a castle" || got.SessionID != "s1" || string(got.Data) != "pixels" {
		t.Errorf("posted params = %+v", got)
	}
	if row.ID != "img_9" {
		t.Errorf("row = %+v", row)
	}
}

func TestSaveSurfacesStoreError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "imagePrompt is required"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Save(context.Background(), slideimage.SaveParams{}); err == nil {
		t.Fatal("expected an error")
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"presentation-server/internal/domain/slideimage"
)

type mockImageStore struct {
	saveFunc  func(ctx context.Context, params slideimage.SaveParams) (*slideimage.GeneratedImage, error)
	queryFunc func(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error)
}

func (m *mockImageStore) Save(ctx context.Context, params slideimage.SaveParams) (*slideimage.GeneratedImage, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, params)
	}
	return &slideimage.GeneratedImage{ID: "img_1"}, nil
}

func (m *mockImageStore) Query(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, filter)
	}
	return nil, nil
}

func newStoreRouter(store ImageStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewStoreHandler(store, zerolog.Nop())

	router := gin.New()
	router.GET("/presentations/save-slide-image", handler.Query)
	router.POST("/presentations/save-slide-image", handler.Save)
	return router
}

func TestStoreQueryEndpoint(t *testing.T) {
	var gotFilter slideimage.Filter
	store := &mockImageStore{
		queryFunc: func(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error) {
			gotFilter = filter
			return []*slideimage.GeneratedImage{{ID: "img_1", Prompt: "a castle"}}, nil
		},
	}
	router := newStoreRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/presentations/save-slide-image?imagePrompt=a+castle&sessionId=s1&slideId=slide-1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotFilter.Prompt != "a castle" || gotFilter.SessionID != "s1" || gotFilter.SlideID != "slide-1" {
		t.Errorf("filter = %+v", gotFilter)
	}

	var resp struct {
		SlideImages []slideimage.GeneratedImage `json:"slideImages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.SlideImages) != 1 || resp.SlideImages[0].ID != "img_1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestStoreQueryEmptyResultIsAnArray(t *testing.T) {
	router := newStoreRouter(&mockImageStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/presentations/save-slide-image?sessionId=s1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"slideImages":[]`) {
		t.Errorf("body = %s, want an empty array rather than null", w.Body.String())
	}
}

func TestStoreQueryMissingFilter(t *testing.T) {
	store := &mockImageStore{
		queryFunc: func(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error) {
			return nil, &slideimage.PipelineError{
				Code:    slideimage.ErrCodeMalformedInput,
				Message: "at least one of sessionId, userId or imagePrompt is required",
			}
		},
	}
	router := newStoreRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/presentations/save-slide-image", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStoreSaveEndpoint(t *testing.T) {
	var gotParams slideimage.SaveParams
	store := &mockImageStore{
		saveFunc: func(ctx context.Context, params slideimage.SaveParams) (*slideimage.GeneratedImage, error) {
			gotParams = params
			return &slideimage.GeneratedImage{ID: "img_7", Prompt: params.Prompt}, nil
		},
	}
	router := newStoreRouter(store)

	body, _ := json.Marshal(slideimage.SaveParams{
		SlideID:   "slide-1",
		Prompt:    "a castle",
		MimeType:  "image/png",
		Data:      []byte("pixels"),
		SessionID: "s1",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/presentations/save-slide-image", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotParams.Prompt != "a castle" || string(gotParams.Data) != "pixels" {
		t.Errorf("params = %+v", gotParams)
	}
	if !strings.Contains(w.Body.String(), `"slideImage"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestStoreSaveRejectsMissingFields(t *testing.T) {
	router := newStoreRouter(&mockImageStore{})

	// imagePrompt, bytes and sessionId are required by the binding.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/presentations/save-slide-image", strings.NewReader(`{"mimeType":"image/png"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

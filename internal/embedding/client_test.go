package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/miro-4231/BackendSN/internal/models"
)

func embedHandler(t *testing.T, dims int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text == "" {
			t.Error("expected non-empty text")
		}

		vec := make([]float32, dims)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
	}
}

func TestEmbed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(embedHandler(t, models.EmbeddingDim))
	defer srv.Close()

	client := NewClient(srv.URL)
	if !client.Enabled() {
		t.Fatal("expected client to be enabled")
	}

	vec, err := client.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != models.EmbeddingDim {
		t.Fatalf("expected %d dimensions, got %d", models.EmbeddingDim, len(vec))
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(embedHandler(t, 3))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestEmbedSurfacesServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected status error")
	}
}

func TestDisabledClient(t *testing.T) {
	t.Parallel()
	client := NewClient("")
	if client.Enabled() {
		t.Fatal("expected client to be disabled")
	}
	if _, err := client.Embed(context.Background(), "hello"); err != ErrDisabled {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

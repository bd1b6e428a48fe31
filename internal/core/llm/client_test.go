package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ingredient-engine/internal/core/macros"
	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/infrastructure/config"
	"ingredient-engine/internal/pkg/common"
)

var (
	_ normalize.Normalizer = (*Client)(nil)
	_ macros.Estimator     = (*Client)(nil)
)

func newTestServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: want=/chat/completions got=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization: got=%q", got)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.NormalizerConfig {
	return config.NormalizerConfig{
		Enabled:   true,
		APIKey:    "sk-test",
		Model:     "test-model",
		BaseURL:   baseURL,
		MaxTokens: 50,
		Timeout:   5 * time.Second,
	}
}

func TestNormalizeName(t *testing.T) {
	var seen chatRequest
	srv := newTestServer(t, http.StatusOK, "  \"Red Onion.\"\nBecause it is the generic name.", &seen)
	client := NewClient(testConfig(srv.URL))

	got, err := client.NormalizeName(context.Background(), " Red Onions ")
	if err != nil {
		t.Fatalf("NormalizeName: %v", err)
	}
	if got != "red onion" {
		t.Fatalf("name: want=%q got=%q", "red onion", got)
	}
	if seen.Model != "test-model" || len(seen.Messages) != 2 || seen.Messages[1].Content != "Red Onions" {
		t.Fatalf("request: %+v", seen)
	}
}

func TestEstimateMacrosExtractsJSON(t *testing.T) {
	content := "Here you go:\n```json\n{\"ingredients\":[{\"name\":\"flour\",\"protein_g\":10,\"fat_g\":1,\"carbs_g\":76}]}\n```"
	srv := newTestServer(t, http.StatusOK, content, nil)
	client := NewClient(testConfig(srv.URL))

	raw, err := client.EstimateMacros(context.Background(), []string{"flour"})
	if err != nil {
		t.Fatalf("EstimateMacros: %v", err)
	}
	entries, err := macros.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v (raw=%s)", err, raw)
	}
	if len(entries) != 1 || entries[0].Name != "flour" || entries[0].CarbsG != 76 {
		t.Fatalf("entries: %+v", entries)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, "", nil)
	client := NewClient(testConfig(srv.URL))

	_, err := client.NormalizeName(context.Background(), "garlic")
	if !errors.Is(err, common.ErrAIServiceError) {
		t.Fatalf("want ErrAIServiceError, got=%v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry status: %v", err)
	}
}

func TestClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).EstimateMacros(context.Background(), []string{"salt"})
	if !errors.Is(err, common.ErrAIServiceError) {
		t.Fatalf("want ErrAIServiceError, got=%v", err)
	}
}

func TestClientCancelledContext(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "salt", nil)
	client := NewClient(testConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.NormalizeName(ctx, "salt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got=%v", err)
	}
}

func TestNormalizeThroughCache(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "egg", nil)
	client := NewClient(testConfig(srv.URL))
	cache := normalize.NewCache(normalize.NewMemoryStore())

	got, err := cache.NormalizeAll(context.Background(), []string{"Eggs", "large eggs", "eggs"}, client, 2)
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	for i, v := range got {
		if v != "egg" {
			t.Fatalf("got[%d]: want=egg got=%q", i, v)
		}
	}
}

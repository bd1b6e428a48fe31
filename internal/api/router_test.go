package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ingredient-engine/internal/api/handlers/health"
	"ingredient-engine/internal/core/macros"
	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/core/shopping"
	"ingredient-engine/internal/infrastructure/config"
)

type suffixNormalizer struct{}

func (suffixNormalizer) NormalizeName(ctx context.Context, raw string) (string, error) {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "es"), nil
}

type stubEstimator struct{ raw string }

func (s stubEstimator) EstimateMacros(ctx context.Context, names []string) ([]byte, error) {
	return []byte(s.raw), nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:          config.AppConfig{Version: "test"},
		Server:       config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		Database:     config.DatabaseConfig{Driver: "memory"},
		Normalizer:   config.NormalizerConfig{Concurrency: 2},
		MaxBodyBytes: 1 << 16,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, withNormalizer bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := shopping.NewMemoryStore()
	cacheStore := normalize.NewMemoryStore()
	cache := normalize.NewCache(cacheStore)
	svc := Services{
		Cache:      cache,
		CacheStats: cacheStore,
		ReadyDeps:  map[string]health.Pinger{},
	}
	if withNormalizer {
		svc.Normalizer = suffixNormalizer{}
		svc.Shopping = shopping.NewService(store, shopping.NewReconciler(store), cache, suffixNormalizer{})
		svc.Macros = macros.NewService(stubEstimator{raw: `[{"name":"flour","protein":10,"fat":1,"carbs":70},{"name":"salt","skip":true}]`})
	} else {
		svc.Shopping = shopping.NewService(store, nil, nil, nil)
	}

	router, err := SetupRouter(cfg, svc)
	if err != nil {
		t.Fatalf("SetupRouter: %v", err)
	}
	return router
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatal(err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func doFrom(t *testing.T, r http.Handler, remoteAddr, method, path string, body interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, testConfig(), false)

	code, body := do(t, r, http.MethodGet, "/health", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: code=%d body=%v", code, body)
	}
	if _, ok := body["normalization_cache"]; !ok {
		t.Fatalf("health: missing cache stats: %v", body)
	}
	if code, _ := do(t, r, http.MethodGet, "/ready", nil); code != http.StatusOK {
		t.Fatalf("ready: code=%d", code)
	}
	if code, _ := do(t, r, http.MethodGet, "/live", nil); code != http.StatusOK {
		t.Fatalf("live: code=%d", code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, testConfig(), false)

	code, body := do(t, r, http.MethodGet, "/api/v1/nope", nil)
	if code != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Fatalf("unknown route: code=%d body=%v", code, body)
	}
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := shopping.NewMemoryStore()
	r, err := SetupRouter(testConfig(), Services{
		Shopping: shopping.NewService(store, nil, nil, nil),
		ReadyDeps: map[string]health.Pinger{
			"database": health.PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
		},
	})
	if err != nil {
		t.Fatalf("SetupRouter: %v", err)
	}
	code, body := do(t, r, http.MethodGet, "/ready", nil)
	if code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Fatalf("ready: code=%d body=%v", code, body)
	}
}

func TestParseAndFormat(t *testing.T) {
	r := newTestRouter(t, testConfig(), false)

	code, body := do(t, r, http.MethodPost, "/api/v1/ingredients/parse", map[string]interface{}{
		"lines": []string{"2 tbsp olive oil, divided", "salt"},
	})
	if code != http.StatusOK {
		t.Fatalf("parse: code=%d body=%v", code, body)
	}
	lines := body["lines"].([]interface{})
	first := lines[0].(map[string]interface{})
	if first["text"] != "2 tbsp olive oil, divided" || first["key"] != "tbsp|olive oil" {
		t.Fatalf("parse first line: %v", first)
	}
	if lines[1].(map[string]interface{})["text"] != "salt" {
		t.Fatalf("parse second line: %v", lines[1])
	}

	code, body = do(t, r, http.MethodPost, "/api/v1/ingredients/format", map[string]interface{}{
		"ingredients": []map[string]interface{}{
			{"quantity": 150, "unit": "grams", "name": "flour"},
			{"quantity": 0.5, "unit": "tsp", "name": "salt", "prep": "fine"},
		},
		"scale":        1.5,
		"include_prep": true,
	})
	if code != http.StatusOK {
		t.Fatalf("format: code=%d body=%v", code, body)
	}
	got := body["lines"].([]interface{})
	if got[0] != "225 g flour" || got[1] != "0.75 tsp salt, fine" {
		t.Fatalf("format: %v", got)
	}

	code, _ = do(t, r, http.MethodPost, "/api/v1/ingredients/format", map[string]interface{}{
		"ingredients": []map[string]interface{}{{"quantity": 1, "unit": "cup", "name": "milk"}},
	})
	if code != http.StatusBadRequest {
		t.Fatalf("format unknown unit: want=400 got=%d", code)
	}
}

func TestShoppingFlow(t *testing.T) {
	r := newTestRouter(t, testConfig(), false)

	code, body := do(t, r, http.MethodPost, "/api/v1/shopping/items", map[string]interface{}{
		"lines":     []string{"200 g flour", "2 eggs"},
		"recipe_id": 1,
	})
	if code != http.StatusOK {
		t.Fatalf("add: code=%d body=%v", code, body)
	}
	code, body = do(t, r, http.MethodPost, "/api/v1/shopping/items", map[string]interface{}{
		"lines":     []string{"300 g Flour"},
		"recipe_id": 2,
	})
	if code != http.StatusOK {
		t.Fatalf("add again: code=%d body=%v", code, body)
	}
	flour := body["items"].([]interface{})[0].(map[string]interface{})
	if flour["display"] != "500 g flour" {
		t.Fatalf("merged display: %v", flour)
	}
	if ids := flour["recipe_ids"].([]interface{}); len(ids) != 2 {
		t.Fatalf("recipe ids: %v", ids)
	}
	id := int(flour["id"].(float64))

	code, body = do(t, r, http.MethodPatch, "/api/v1/shopping/items/"+strconv.Itoa(id), map[string]interface{}{
		"done": true, "category": "pantry",
	})
	if code != http.StatusOK || body["done"] != true || body["category"] != "pantry" {
		t.Fatalf("patch: code=%d body=%v", code, body)
	}

	code, body = do(t, r, http.MethodGet, "/api/v1/shopping", nil)
	items := body["items"].([]interface{})
	if code != http.StatusOK || len(items) != 2 || items[1].(map[string]interface{})["done"] != true {
		t.Fatalf("list: code=%d body=%v", code, body)
	}

	code, body = do(t, r, http.MethodDelete, "/api/v1/shopping/done", nil)
	if code != http.StatusOK || body["deleted"] != float64(1) {
		t.Fatalf("clear done: code=%d body=%v", code, body)
	}

	if code, _ := do(t, r, http.MethodDelete, "/api/v1/shopping/items/"+strconv.Itoa(id), nil); code != http.StatusNotFound {
		t.Fatalf("delete missing: want=404 got=%d", code)
	}
	if code, _ := do(t, r, http.MethodPatch, "/api/v1/shopping/items/abc", map[string]bool{"done": true}); code != http.StatusBadRequest {
		t.Fatalf("bad id: want=400 got=%d", code)
	}

	code, body = do(t, r, http.MethodGet, "/api/v1/shopping/category?name=Chicken%20thighs", nil)
	if code != http.StatusOK || body["category"] != "meat" {
		t.Fatalf("category: code=%d body=%v", code, body)
	}
}

func TestNormalizeRequiresNormalizer(t *testing.T) {
	r := newTestRouter(t, testConfig(), false)

	code, body := do(t, r, http.MethodPost, "/api/v1/normalize", map[string]interface{}{"names": []string{"tomatoes"}})
	if code != http.StatusServiceUnavailable || body["code"] != "NORMALIZER_DISABLED" {
		t.Fatalf("normalize disabled: code=%d body=%v", code, body)
	}
	code, _ = do(t, r, http.MethodPost, "/api/v1/shopping/items", map[string]interface{}{"lines": []string{"1 onion"}, "normalize": true})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("add with normalize disabled: want=503 got=%d", code)
	}
	code, _ = do(t, r, http.MethodPost, "/api/v1/macros/estimate", map[string]interface{}{"lines": []string{"1 onion"}})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("estimate disabled: want=503 got=%d", code)
	}
}

func TestNormalizeAndMacros(t *testing.T) {
	r := newTestRouter(t, testConfig(), true)

	code, body := do(t, r, http.MethodPost, "/api/v1/normalize", map[string]interface{}{"names": []string{"Tomatoes", "potatoes"}})
	if code != http.StatusOK {
		t.Fatalf("normalize: code=%d body=%v", code, body)
	}
	names := body["names"].([]interface{})
	if names[0] != "tomato" || names[1] != "potato" {
		t.Fatalf("normalize: %v", names)
	}

	code, body = do(t, r, http.MethodPost, "/api/v1/macros/estimate", map[string]interface{}{"lines": []string{"200 g flour", "salt"}})
	if code != http.StatusOK {
		t.Fatalf("estimate: code=%d body=%v", code, body)
	}
	if body["protein_g"] != float64(10) || body["skipped"] != float64(1) {
		t.Fatalf("estimate: %v", body)
	}

	code, body = do(t, r, http.MethodPost, "/api/v1/macros/aggregate", `{"items":[{"ingredient":"oats","macros":{"protein":"13g","fat":7,"carbohydrates":68}}]}`)
	if code != http.StatusOK {
		t.Fatalf("aggregate: code=%d body=%v", code, body)
	}
	want := 13*macros.ProteinKcalPerGram + 68*macros.CarbsKcalPerGram + 7*macros.FatKcalPerGram
	if got := body["kcal"].(float64); got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("kcal: want=%v got=%v", want, got)
	}

	if code, _ := do(t, r, http.MethodPost, "/api/v1/macros/aggregate", `"nope"`); code != http.StatusBadRequest {
		t.Fatalf("aggregate invalid: want=400 got=%d", code)
	}
}

func TestDeduplicationAndRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	r := newTestRouter(t, cfg, false)

	// 唯讀的 POST 不去重
	parse := map[string]interface{}{"lines": []string{"1 tsp salt"}}
	for i := 0; i < 2; i++ {
		if code, _ := do(t, r, http.MethodPost, "/api/v1/ingredients/parse", parse); code != http.StatusOK {
			t.Fatalf("parse %d: want=200 got=%d", i, code)
		}
	}

	add := map[string]interface{}{"lines": []string{"1 tsp salt"}}
	if code, _ := do(t, r, http.MethodPost, "/api/v1/shopping/items", add); code != http.StatusOK {
		t.Fatalf("first add: want=200 got=%d", code)
	}
	if code, _ := do(t, r, http.MethodPost, "/api/v1/shopping/items", add); code != http.StatusTooManyRequests {
		t.Fatalf("duplicate add: want=429 got=%d", code)
	}
	// 其他用戶端送出相同內容不受影響
	if code := doFrom(t, r, "10.0.0.2:1234", http.MethodPost, "/api/v1/shopping/items", add); code != http.StatusOK {
		t.Fatalf("add from other client: want=200 got=%d", code)
	}

	cfg = testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	r = newTestRouter(t, cfg, false)
	for i := 0; i < 2; i++ {
		if code, _ := do(t, r, http.MethodGet, "/api/v1/shopping", nil); code != http.StatusOK {
			t.Fatalf("request %d: want=200 got=%d", i, code)
		}
	}
	if code, _ := do(t, r, http.MethodGet, "/api/v1/shopping", nil); code != http.StatusTooManyRequests {
		t.Fatalf("over limit: want=429 got=%d", code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	r := newTestRouter(t, cfg, false)

	big := map[string]interface{}{"lines": []string{strings.Repeat("a", 200)}}
	if code, _ := do(t, r, http.MethodPost, "/api/v1/ingredients/parse", big); code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body: want=413 got=%d", code)
	}
}

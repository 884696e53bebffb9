package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/lexidex/internal/collection"
	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/health"
	"github.com/kailas-cloud/lexidex/internal/shard"
	"github.com/kailas-cloud/lexidex/internal/shard/memindex"
	"github.com/kailas-cloud/lexidex/internal/store/memstore"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := memstore.New()
	newShard := func(_ string, _ int, s schema.Schema) shard.Shard {
		return memindex.New(s)
	}
	manager := collection.NewManager(st, newShard, 2, collection.DefaultConstants)
	return New(manager, health.New(st), zap.NewNop())
}

func TestCreateAndGetCollection(t *testing.T) {
	srv := newTestServer(t)
	r := srv.Router()

	body := `{"name":"products","fields":[{"name":"title","type":"string"}]}`
	req := httptest.NewRequest(http.MethodPost, "/collections", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 201 {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/collections/products", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("get: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var meta map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta["name"] != "products" {
		t.Fatalf("expected name products, got %v", meta["name"])
	}
}

func TestGetMissingCollectionReturns404(t *testing.T) {
	srv := newTestServer(t)
	r := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/collections/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAddAndSearchDocument(t *testing.T) {
	srv := newTestServer(t)
	r := srv.Router()

	createBody := `{"name":"products","fields":[{"name":"title","type":"string"}]}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/collections", strings.NewReader(createBody)))
	if rec.Code != 201 {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	docBody := `{"title":"red widget"}`
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/collections/products/documents", strings.NewReader(docBody)))
	if rec.Code != 201 {
		t.Fatalf("add: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections/products/search?q=red&query_by=title", nil))
	if rec.Code != 200 {
		t.Fatalf("search: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res collection.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Found != 1 {
		t.Fatalf("expected 1 hit, got %d", res.Found)
	}
}

func TestHealthzReportsOK(t *testing.T) {
	srv := newTestServer(t)
	r := srv.Router()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

// Package http wires a chi router over the collection registry for the
// demo daemon. It is the "external collaborator" boundary spec.md §1
// describes: every handler translates a *collection.StatusError to the
// matching HTTP status and otherwise stays out of domain logic.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lexidex/internal/collection"
	"github.com/kailas-cloud/lexidex/internal/domain/field"
	"github.com/kailas-cloud/lexidex/internal/health"
	"github.com/kailas-cloud/lexidex/internal/metrics"
)

// Server exposes the collection registry over HTTP.
type Server struct {
	manager *collection.Manager
	health  *health.Service
	log     *zap.Logger
}

// New constructs a Server. manager owns every collection this server
// routes requests to; health reports readiness.
func New(manager *collection.Manager, h *health.Service, log *zap.Logger) *Server {
	return &Server{manager: manager, health: h, log: log}
}

// Router builds the chi router described in SPEC_FULL.md §6.5.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/collections", func(r chi.Router) {
		r.Post("/", s.handleCreateCollection)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetCollection)
			r.Delete("/", s.handleDropCollection)
			r.Get("/search", s.handleSearch)
			r.Post("/documents", s.handleAddDocument)
			r.Route("/documents/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Delete("/", s.handleRemoveDocument)
			})
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

type createCollectionRequest struct {
	Name              string      `json:"name"`
	Fields            []fieldSpec `json:"fields"`
	TokenRankingField string      `json:"token_ranking_field"`
}

type fieldSpec struct {
	Name  string     `json:"name"`
	Type  field.Type `json:"type"`
	Facet bool       `json:"facet"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid request body: "+err.Error())
		return
	}

	fields := make([]field.Field, 0, len(req.Fields))
	for _, fs := range req.Fields {
		f, err := field.New(fs.Name, fs.Type, fs.Facet)
		if err != nil {
			writeError(w, 400, err.Error())
			return
		}
		fields = append(fields, f)
	}

	c, err := s.manager.Create(r.Context(), req.Name, fields, req.TokenRankingField)
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	writeJSON(w, 201, collectionMeta(c))
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.manager.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	writeJSON(w, 200, collectionMeta(c))
}

func (s *Server) handleDropCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Drop(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	c, err := s.manager.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}

	body, err := jsonBody(r)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	start := time.Now()
	id, err := c.Add(r.Context(), body)
	metrics.IngestDuration.WithLabelValues(c.GetName()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IngestTotal.WithLabelValues(c.GetName(), "error").Inc()
		s.writeCollectionError(w, r, err)
		return
	}
	metrics.IngestTotal.WithLabelValues(c.GetName(), "ok").Inc()
	writeJSON(w, 201, map[string]string{"id": id})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	c, err := s.manager.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	doc, err := c.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	writeJSON(w, 200, doc)
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	c, err := s.manager.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	if err := c.Remove(r.Context(), chi.URLParam(r, "id"), true); err != nil {
		s.writeCollectionError(w, r, err)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	c, err := s.manager.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeCollectionError(w, r, err)
		return
	}

	params, err := parseSearchParams(r)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	start := time.Now()
	res, err := c.Search(r.Context(), params)
	metrics.SearchDuration.WithLabelValues(c.GetName()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchTotal.WithLabelValues(c.GetName(), "error").Inc()
		s.writeCollectionError(w, r, err)
		return
	}
	metrics.SearchTotal.WithLabelValues(c.GetName(), "ok").Inc()
	writeJSON(w, 200, res)
}

func parseSearchParams(r *http.Request) (collection.SearchParams, error) {
	q := r.URL.Query()
	perPage, err := strconv.Atoi(firstNonEmpty(q.Get("per_page"), "10"))
	if err != nil {
		return collection.SearchParams{}, err
	}
	page, err := strconv.Atoi(firstNonEmpty(q.Get("page"), "1"))
	if err != nil {
		return collection.SearchParams{}, err
	}
	return collection.SearchParams{
		Query:        q.Get("q"),
		SearchFields: splitNonEmpty(q.Get("query_by")),
		Filter:       q.Get("filter_by"),
		FacetFields:  splitNonEmpty(q.Get("facet_by")),
		PerPage:      perPage,
		Page:         page,
		Prefix:       q.Get("prefix") == "true",
	}, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func jsonBody(r *http.Request) (string, error) {
	defer r.Body.Close()
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func collectionMeta(c *collection.Collection) map[string]any {
	return map[string]any{
		"name":                c.GetName(),
		"collection_id":       c.GetCollectionID(),
		"num_documents":       c.GetNumDocuments(),
		"token_ranking_field": c.GetTokenRankingField(),
		"facet_fields":        c.GetFacetFields(),
	}
}

// writeCollectionError translates a *collection.StatusError to its HTTP
// status and logs 5xx failures; 4xx client errors are expected traffic
// and not worth a log line.
func (s *Server) writeCollectionError(w http.ResponseWriter, r *http.Request, err error) {
	status := collection.StatusCode(err)
	if status >= 500 {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path), zap.String("method", r.Method),
			zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

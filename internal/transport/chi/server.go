// Package chi exposes the engine over HTTP: hybrid search, record
// ingestion, similarity lookups, and knowledge search.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agridex/internal/domain"
	domknow "github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/agridex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/agridex/internal/usecase/ingest"
	knowledgeuc "github.com/kailas-cloud/agridex/internal/usecase/knowledge"
	searchuc "github.com/kailas-cloud/agridex/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeUpstream         = "upstream_unavailable"
	codePersistence      = "persistence_failure"
	codeInternal         = "internal_error"
)

type searchService interface {
	Search(ctx context.Context, q query.Query) (searchuc.Result, error)
	FindSimilar(ctx context.Context, ownerID, recordID string, limit int) ([]record.Record, error)
}

type ingestService interface {
	Ingest(ctx context.Context, in ingestuc.Input) (ingestuc.Result, error)
}

type knowledgeService interface {
	Search(ctx context.Context, q knowledgeuc.Query) (knowledgeuc.Result, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        searchService
	ingest        ingestService
	knowledge     knowledgeService
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search searchService,
	ingest ingestService,
	knowledge knowledgeService,
	health healthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		ingest:    ingest,
		knowledge: knowledge,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrKnowledgeNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, codeUpstream),
		sentinelHandler(domain.ErrPersistenceFailure, http.StatusInternalServerError, codePersistence),
	}
	return s
}

// Routes mounts the API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/records", s.handleIngest)
	r.Get("/v1/records/{recordID}/similar", s.handleSimilar)
	r.Get("/v1/knowledge/search", s.handleKnowledgeSearch)
	r.Get("/health", s.handleHealth)
}

// --- Search ---

type searchRequest struct {
	OwnerID  string `json:"owner_id"`
	Query    string `json:"query"`
	FieldID  string `json:"field_id,omitempty"`
	Category string `json:"category,omitempty"`
	Quality  string `json:"quality,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type searchHit struct {
	Record recordJSON `json:"record"`
	Score  float64    `json:"score"`
}

type searchResponse struct {
	Method  string      `json:"method"`
	Total   int         `json:"total"`
	Results []searchHit `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	dateFrom, err := parseDate(req.DateFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid date_from")
		return
	}
	dateTo, err := parseDate(req.DateTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid date_to")
		return
	}

	scope, err := query.NewScope(
		req.OwnerID, req.FieldID,
		record.Category(req.Category), record.Quality(req.Quality),
		dateFrom, dateTo,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	q, err := query.New(req.Query, scope, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := searchResponse{
		Method:  string(res.Method),
		Total:   len(res.Hits),
		Results: make([]searchHit, len(res.Hits)),
	}
	for i := range res.Hits {
		rec := res.Hits[i].Record()
		resp.Results[i] = searchHit{Record: recordToJSON(&rec), Score: res.Hits[i].Score()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Ingest ---

type materialJSON struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

type weatherJSON struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c,omitempty"`
	Humidity     float64 `json:"humidity,omitempty"`
}

type outcomeJSON struct {
	Quality       string   `json:"quality"`
	Effectiveness string   `json:"effectiveness,omitempty"`
	Issues        []string `json:"issues,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
	Satisfaction  int      `json:"satisfaction,omitempty"`
}

type ingestRequest struct {
	OwnerID     string         `json:"owner_id"`
	FarmID      string         `json:"farm_id,omitempty"`
	FieldID     string         `json:"field_id,omitempty"`
	Date        string         `json:"date"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Materials   []materialJSON `json:"materials,omitempty"`
	Weather     *weatherJSON   `json:"weather,omitempty"`
	DurationMin int            `json:"duration_min,omitempty"`
	Workers     int            `json:"workers,omitempty"`
	Equipment   []string       `json:"equipment,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Outcome     outcomeJSON    `json:"outcome"`
}

type relatedJSON struct {
	RecordID   string `json:"record_id"`
	Date       string `json:"date"`
	Similarity string `json:"similarity"`
}

type ingestResponse struct {
	RecordID        string        `json:"record_id"`
	Learnings       []string      `json:"learnings"`
	Recommendations []string      `json:"recommendations"`
	RelatedRecords  []relatedJSON `json:"related_records,omitempty"`
	KnowledgeID     string        `json:"knowledge_id,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil || date.IsZero() {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid date")
		return
	}

	in := ingestuc.Input{
		OwnerID:     req.OwnerID,
		FarmID:      req.FarmID,
		FieldID:     req.FieldID,
		Date:        date,
		Category:    record.Category(req.Category),
		Description: req.Description,
		DurationMin: req.DurationMin,
		Workers:     req.Workers,
		Equipment:   req.Equipment,
		Notes:       req.Notes,
		Outcome: record.Outcome{
			Quality:       record.Quality(req.Outcome.Quality),
			Effectiveness: record.Effectiveness(req.Outcome.Effectiveness),
			Issues:        req.Outcome.Issues,
			Improvements:  req.Outcome.Improvements,
			Satisfaction:  req.Outcome.Satisfaction,
		},
	}
	for _, m := range req.Materials {
		in.Materials = append(in.Materials, record.Material{Name: m.Name, Amount: m.Amount, Unit: m.Unit})
	}
	if req.Weather != nil {
		in.Weather = &record.Weather{
			Condition:    req.Weather.Condition,
			TemperatureC: req.Weather.TemperatureC,
			Humidity:     req.Weather.Humidity,
		}
	}

	res, err := s.ingest.Ingest(r.Context(), in)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ingestResponse{
		RecordID:        res.RecordID,
		Learnings:       res.Learnings,
		Recommendations: res.Recommendations,
		KnowledgeID:     res.KnowledgeID,
	}
	for _, rel := range res.Related {
		resp.RelatedRecords = append(resp.RelatedRecords, relatedJSON{
			RecordID:   rel.RecordID,
			Date:       rel.Date.Format(time.DateOnly),
			Similarity: rel.Similarity,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// --- Similar ---

type similarResponse struct {
	Results []recordJSON `json:"results"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "owner_id is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.search.FindSimilar(r.Context(), ownerID, recordID, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := similarResponse{Results: make([]recordJSON, len(records))}
	for i := range records {
		resp.Results[i] = recordToJSON(&records[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Knowledge ---

type knowledgeJSON struct {
	ID             string   `json:"id"`
	FarmID         string   `json:"farm_id,omitempty"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Category       string   `json:"category"`
	RelatedRecords []string `json:"related_records"`
	Confidence     float64  `json:"confidence"`
	Frequency      int      `json:"frequency"`
	LastUsed       string   `json:"last_used"`
	Tags           []string `json:"tags,omitempty"`
}

type knowledgeResponse struct {
	Total         int             `json:"total"`
	AvgConfidence float64         `json:"avg_confidence"`
	Categories    map[string]int  `json:"categories"`
	Results       []knowledgeJSON `json:"results"`
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	minConfidence, _ := strconv.ParseFloat(params.Get("min_confidence"), 64)
	limit, _ := strconv.Atoi(params.Get("limit"))

	res, err := s.knowledge.Search(r.Context(), knowledgeuc.Query{
		OwnerID:       params.Get("owner_id"),
		FarmID:        params.Get("farm_id"),
		Category:      domknow.Category(params.Get("category")),
		Text:          params.Get("q"),
		MinConfidence: minConfidence,
		Limit:         limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := knowledgeResponse{
		Total:         res.Total,
		AvgConfidence: res.AvgConfidence,
		Categories:    make(map[string]int, len(res.Categories)),
		Results:       make([]knowledgeJSON, len(res.Entries)),
	}
	for cat, n := range res.Categories {
		resp.Categories[string(cat)] = n
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		resp.Results[i] = knowledgeJSON{
			ID:             e.ID(),
			FarmID:         e.FarmID(),
			Title:          e.Title(),
			Content:        e.Content(),
			Category:       string(e.Category()),
			RelatedRecords: e.RelatedRecords(),
			Confidence:     e.Confidence(),
			Frequency:      e.Frequency(),
			LastUsed:       e.LastUsed().UTC().Format(time.RFC3339),
			Tags:           e.Tags(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// --- Shared ---

type recordJSON struct {
	ID          string   `json:"id"`
	FieldID     string   `json:"field_id,omitempty"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Notes       string   `json:"notes,omitempty"`
	Quality     string   `json:"quality"`
	Tags        []string `json:"tags,omitempty"`
}

func recordToJSON(rec *record.Record) recordJSON {
	return recordJSON{
		ID:          rec.ID(),
		FieldID:     rec.FieldID(),
		Date:        rec.Date().UTC().Format(time.DateOnly),
		Category:    string(rec.Category()),
		Description: rec.Description(),
		Notes:       rec.Notes(),
		Quality:     string(rec.Outcome().Quality),
		Tags:        rec.Tags(),
	}
}

// parseDate accepts date-only and RFC3339 timestamps; empty input is the
// zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals (connection strings, keys, upstream bodies).
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrRecordNotFound,
		domain.ErrKnowledgeNotFound,
		domain.ErrUpstreamUnavailable,
		domain.ErrPersistenceFailure,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

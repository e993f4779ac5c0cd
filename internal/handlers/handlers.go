// Package handlers содержит HTTP-обработчики портала поставщиков.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/resolver"
	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

// KPIResolver разрешает агрегатные и детальные запросы KPI.
type KPIResolver interface {
	Resolve(ctx context.Context, opName string, q resolver.Query) (resolver.Value, error)
}

// CatalogResolver разрешает страницы каталога "по состоянию на дату".
type CatalogResolver interface {
	Resolve(ctx context.Context, q resolver.CatalogQuery) (resolver.CatalogResult, error)
}

// DirectoryResolver возвращает справочник поставщиков.
type DirectoryResolver interface {
	Resolve(ctx context.Context, q resolver.DirectoryQuery) []models.Provider
}

type Handler struct {
	kpi       KPIResolver
	catalog   CatalogResolver
	directory DirectoryResolver
}

func NewHandler(kpi KPIResolver, catalog CatalogResolver, directory DirectoryResolver) *Handler {
	return &Handler{kpi: kpi, catalog: catalog, directory: directory}
}

// HealthHandler возвращает статус 200 OK и тело "OK" для проверки состояния сервера.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type kpiResponse struct {
	Operation string        `json:"operation"`
	Value     string        `json:"value,omitempty"`
	Rows      []upstreamRow `json:"rows,omitempty"`
	RowCount  *int          `json:"row_count,omitempty"`
}

type upstreamRow = map[string]any

// KPIHandler обрабатывает запросы показателей: /api/kpi/{op}.
// Параметры: from, to (YYYY-MM-DD), providers (через запятую), dim, refresh.
func (h *Handler) KPIHandler(w http.ResponseWriter, r *http.Request) {
	opName := chi.URLParam(r, "op")
	if opName == "" {
		http.Error(w, "Missing operation", http.StatusBadRequest)
		return
	}

	q := resolver.Query{
		Providers:    splitList(r.URL.Query().Get("providers")),
		Dim:          r.URL.Query().Get("dim"),
		ForceRefresh: boolParam(r, "refresh"),
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			http.Error(w, "Invalid to date", http.StatusBadRequest)
			return
		}
		q.End = end
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			http.Error(w, "Invalid from date", http.StatusBadRequest)
			return
		}
		q.Start = &start
	}

	value, err := h.kpi.Resolve(r.Context(), opName, q)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, resolver.ErrUnknownOperation) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := kpiResponse{Operation: opName}
	op, _ := resolver.LookupOperation(opName)
	if op.Shape == resolver.ShapeDetail {
		rows := make([]upstreamRow, len(value.Rows))
		for i, row := range value.Rows {
			rows[i] = row
		}
		n := len(rows)
		resp.Rows = rows
		resp.RowCount = &n
	} else {
		resp.Value = value.Scalar.StringFixed(op.Places)
	}
	writeJSON(w, resp)
}

type catalogResponse struct {
	Source       string               `json:"source"`
	SnapshotDate string               `json:"snapshot_date,omitempty"`
	Total        int                  `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	Items        []models.CatalogItem `json:"items"`
}

// CatalogHandler обрабатывает запросы каталога: /api/catalog.
// Параметры: date (YYYY-MM-DD), providers, search, page, page_size, strategy.
func (h *Handler) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	q := resolver.CatalogQuery{
		Providers: splitList(r.URL.Query().Get("providers")),
		Search:    r.URL.Query().Get("search"),
		Page:      intParam(r, "page", 1),
		PageSize:  intParam(r, "page_size", 0),
		Strategy:  resolver.SnapshotStrategy(r.URL.Query().Get("strategy")),
	}
	// Размер страницы по умолчанию применяется здесь же, чтобы ответ
	// сообщал фактический размер, а не нулевой из запроса.
	if q.PageSize <= 0 {
		q.PageSize = resolver.DefaultPageSize
	}

	raw := r.URL.Query().Get("date")
	if raw == "" {
		http.Error(w, "Missing date parameter", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}
	q.End = date

	result, err := h.catalog.Resolve(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := catalogResponse{
		Source:   result.Source,
		Total:    result.Total,
		Page:     q.Page,
		PageSize: q.PageSize,
		Items:    result.Items,
	}
	if resp.Items == nil {
		resp.Items = []models.CatalogItem{}
	}
	if result.SnapshotDate != nil {
		resp.SnapshotDate = result.SnapshotDate.Format(dateLayout)
	}
	writeJSON(w, resp)
}

type directoryResponse struct {
	Providers []models.Provider `json:"providers"`
}

// ProvidersHandler обрабатывает запросы справочника поставщиков:
// /api/providers. Параметры: only_active, include_names.
func (h *Handler) ProvidersHandler(w http.ResponseWriter, r *http.Request) {
	providers := h.directory.Resolve(r.Context(), resolver.DirectoryQuery{
		OnlyActive:          boolParam(r, "only_active"),
		IncludeDisplayNames: boolParam(r, "include_names"),
	})
	if providers == nil {
		providers = []models.Provider{}
	}
	writeJSON(w, directoryResponse{Providers: providers})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || strings.EqualFold(v, "true")
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

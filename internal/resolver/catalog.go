package resolver

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/avetra/supplierhub/internal/canonical"
	"github.com/avetra/supplierhub/internal/freshness"
	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/numeric"
	"github.com/avetra/supplierhub/internal/repository"
	"github.com/avetra/supplierhub/internal/upstream"
)

// SnapshotStrategy задает правило выбора между снапшотом и живым API.
type SnapshotStrategy string

const (
	// StrategyNearestPast — использовать последний снапшот не позже
	// запрошенной даты, каким бы старым он ни был.
	StrategyNearestPast SnapshotStrategy = "nearest_past"
	// StrategyExactOrAPI — снапшот только при точном совпадении даты либо
	// для сугубо исторических запросов; иначе живой вызов API.
	StrategyExactOrAPI SnapshotStrategy = "exact_or_api"
)

// DefaultPageSize используется, если размер страницы не задан.
const DefaultPageSize = 50

// Источники ответа каталога.
const (
	SourceSnapshot = "snapshot"
	SourceUpstream = "upstream"
)

// CatalogQuery содержит параметры запроса страницы каталога.
type CatalogQuery struct {
	End       time.Time
	Providers []string
	Search    string
	Page      int
	PageSize  int
	Strategy  SnapshotStrategy
}

// CatalogResult содержит страницу каталога и ее происхождение.
type CatalogResult struct {
	Source       string
	SnapshotDate *time.Time
	Total        int
	Items        []models.CatalogItem
}

// CatalogResolver отвечает на запросы каталога "по состоянию на дату".
type CatalogResolver struct {
	store  repository.SnapshotStore
	source upstream.Source
	policy freshness.Policy
}

func NewCatalogResolver(store repository.SnapshotStore, source upstream.Source, policy freshness.Policy) *CatalogResolver {
	return &CatalogResolver{store: store, source: source, policy: policy}
}

// Resolve находит пригодный снапшот каталога либо собирает страницу
// живыми вызовами API по каждому поставщику.
func (r *CatalogResolver) Resolve(ctx context.Context, q CatalogQuery) (CatalogResult, error) {
	if q.End.IsZero() {
		return CatalogResult{}, fmt.Errorf("%w: missing target date", ErrInvalidRange)
	}

	set := canonical.Canonicalize(q.Providers)
	if set.Empty() {
		return CatalogResult{Source: SourceSnapshot}, nil
	}

	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Strategy == "" {
		q.Strategy = StrategyExactOrAPI
	}

	target := freshness.DateOnly(q.End)

	latest, err := r.store.LatestSnapshotDate(ctx, target)
	if err != nil {
		// Сбой чтения хранилища = снапшота нет; уходим в живой API.
		log.Printf("latest snapshot lookup failed: %v", err)
		latest = nil
	}

	if latest != nil && r.useSnapshot(q.Strategy, *latest, target) {
		total, items, err := r.store.SnapshotPage(ctx, *latest, set.IDs, q.Search, q.Page, q.PageSize)
		if err == nil {
			return CatalogResult{
				Source:       SourceSnapshot,
				SnapshotDate: latest,
				Total:        total,
				Items:        items,
			}, nil
		}
		log.Printf("snapshot page read failed: %v", err)
	}

	return r.fromUpstream(ctx, set, q, target), nil
}

func (r *CatalogResolver) useSnapshot(strategy SnapshotStrategy, latest, target time.Time) bool {
	if strategy == StrategyNearestPast {
		return true
	}
	if latest.Equal(target) {
		return true
	}
	// Ближайший прошлый снапшот — приемлемое историческое приближение
	// только для дат строго раньше сегодняшней: данные за сегодня и
	// будущее еще меняются.
	return latest.Before(target) && target.Before(r.policy.Today())
}

// fromUpstream собирает страницу живыми вызовами: API каталога не умеет
// запрос по нескольким поставщикам сразу, поэтому по вызову на каждого.
// Сбой одного поставщика не ломает страницу — его строки пропускаются.
// Этот путь ничего не сохраняет.
func (r *CatalogResolver) fromUpstream(ctx context.Context, set canonical.Set, q CatalogQuery, target time.Time) CatalogResult {
	var merged []models.CatalogItem
	for _, providerID := range set.IDs {
		env, err := r.source.Call(ctx, upstream.OpCatalogPage, map[string]string{
			"provider": providerID,
			"date":     upstream.DateParam(target),
		})
		if err != nil || env == nil || !env.Success {
			log.Printf("catalog upstream for provider %s failed, skipping: %v", providerID, err)
			continue
		}
		for _, row := range env.Rows {
			merged = append(merged, catalogItemFromRow(providerID, row))
		}
	}

	var filtered []models.CatalogItem
	for _, it := range merged {
		if matchesCatalogSearch(it, q.Search) {
			filtered = append(filtered, it)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Description != filtered[j].Description {
			return filtered[i].Description < filtered[j].Description
		}
		return filtered[i].ProviderID < filtered[j].ProviderID
	})

	total := len(filtered)
	from := (q.Page - 1) * q.PageSize
	if from > total {
		from = total
	}
	to := from + q.PageSize
	if to > total {
		to = total
	}
	return CatalogResult{
		Source: SourceUpstream,
		Total:  total,
		Items:  filtered[from:to],
	}
}

func matchesCatalogSearch(it models.CatalogItem, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(it.Description), needle) ||
		strings.Contains(strings.ToLower(it.Barcode), needle) ||
		strings.Contains(strings.ToLower(it.ProductCode), needle)
}

func catalogItemFromRow(providerID string, row upstream.Row) models.CatalogItem {
	it := models.CatalogItem{
		ProviderID:  providerID,
		ProductCode: rowString(row, "product_code"),
		Barcode:     rowString(row, "barcode"),
		Description: rowString(row, "description"),
		Brand:       rowString(row, "brand"),
		Family:      rowString(row, "family"),
	}
	it.Units = rowNumber(row, "units", numeric.PlacesQuantity)
	it.Price = rowNumber(row, "price", numeric.PlacesCurrency)
	return it
}

func rowString(row upstream.Row, field string) string {
	if v, ok := row[field]; ok && v != nil {
		return stringify(v)
	}
	return ""
}

func rowNumber(row upstream.Row, field string, places int32) float64 {
	v, ok := row[field]
	if !ok || v == nil {
		return 0
	}
	d, err := numeric.Normalize(stringify(v), places)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

package resolver

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/avetra/supplierhub/internal/freshness"
	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/repository"
	"github.com/avetra/supplierhub/internal/upstream"
)

// DefaultStalenessDays задает допустимый возраст справочника поставщиков.
const DefaultStalenessDays = 2

// DirectoryQuery содержит фильтры запроса справочника.
type DirectoryQuery struct {
	OnlyActive          bool
	IncludeDisplayNames bool
}

// DirectoryResolver кеширует справочник поставщиков. В отличие от кеша KPI
// свежесть определяется не сроком годности записи, а возрастом последнего
// снапшота справочника.
type DirectoryResolver struct {
	store         repository.DirectoryStore
	source        upstream.Source
	policy        freshness.Policy
	stalenessDays int
}

func NewDirectoryResolver(store repository.DirectoryStore, source upstream.Source, policy freshness.Policy, stalenessDays int) *DirectoryResolver {
	if stalenessDays <= 0 {
		stalenessDays = DefaultStalenessDays
	}
	return &DirectoryResolver{
		store:         store,
		source:        source,
		policy:        policy,
		stalenessDays: stalenessDays,
	}
}

// Resolve возвращает справочник поставщиков: из хранилища, пока последний
// снапшот не старше допуска; иначе один вызов источника, транзакционный
// засев под сегодняшней датой и перечитывание через тот же путь чтения.
func (r *DirectoryResolver) Resolve(ctx context.Context, q DirectoryQuery) []models.Provider {
	today := r.policy.Today()

	latest, err := r.store.LatestDirectoryDate(ctx)
	if err != nil {
		log.Printf("directory date lookup failed: %v", err)
		latest = nil
	}

	if latest != nil && r.fresh(*latest, today) {
		providers, err := r.store.ListProviders(ctx, freshness.DateOnly(*latest), q.OnlyActive)
		if err == nil {
			return finishDirectory(providers, q)
		}
		log.Printf("directory read failed: %v", err)
	}

	env, callErr := r.source.Call(ctx, upstream.OpProviderDirectory, map[string]string{})
	if callErr != nil || env == nil || !env.Success {
		log.Printf("provider directory upstream failed: %v", callErr)
		// Устаревший справочник лучше пустого.
		if latest != nil {
			providers, err := r.store.ListProviders(ctx, freshness.DateOnly(*latest), q.OnlyActive)
			if err == nil {
				return finishDirectory(providers, q)
			}
			log.Printf("stale directory read failed: %v", err)
		}
		return nil
	}

	fetched := providersFromRows(env.Rows)

	if err := r.store.ReplaceDirectory(ctx, today, fetched); err != nil {
		// Засев не удался и откатился целиком; отдаем сырой ответ
		// источника с теми же фильтрами.
		log.Printf("directory seed failed: %v", err)
		return finishDirectory(filterDirectory(fetched, q), q)
	}

	providers, err := r.store.ListProviders(ctx, today, q.OnlyActive)
	if err != nil {
		log.Printf("directory reread failed: %v", err)
		return finishDirectory(filterDirectory(fetched, q), q)
	}
	return finishDirectory(providers, q)
}

func (r *DirectoryResolver) fresh(latest, today time.Time) bool {
	age := int(today.Sub(freshness.DateOnly(latest)).Hours() / 24)
	return age <= r.stalenessDays
}

func providersFromRows(rows []upstream.Row) []models.Provider {
	providers := make([]models.Provider, 0, len(rows))
	for _, row := range rows {
		id := rowString(row, "provider_id")
		if id == "" {
			continue
		}
		active := true
		if b, ok := row["active"].(bool); ok {
			active = b
		}
		providers = append(providers, models.Provider{
			ID:          id,
			DisplayName: rowString(row, "display_name"),
			Active:      active,
		})
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return providers
}

func filterDirectory(providers []models.Provider, q DirectoryQuery) []models.Provider {
	if !q.OnlyActive {
		return providers
	}
	var filtered []models.Provider
	for _, p := range providers {
		if p.Active {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func finishDirectory(providers []models.Provider, q DirectoryQuery) []models.Provider {
	if q.IncludeDisplayNames {
		return providers
	}
	out := make([]models.Provider, len(providers))
	for i, p := range providers {
		p.DisplayName = ""
		out[i] = p
	}
	return out
}

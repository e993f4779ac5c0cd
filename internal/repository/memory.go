package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avetra/supplierhub/internal/models"
)

// MemStorage реализует все хранилища в памяти, потокобезопасно.
// Используется в тестах и в режиме работы без базы данных.
type MemStorage struct {
	mu         sync.RWMutex
	aggregates map[string]AggregateRecord
	details    map[string]DetailRecord
	snapshots  map[string]map[string]models.CatalogItem // дата -> provider|code -> строка
	directory  map[string][]models.Provider             // дата -> справочник
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		aggregates: make(map[string]AggregateRecord),
		details:    make(map[string]DetailRecord),
		snapshots:  make(map[string]map[string]models.CatalogItem),
		directory:  make(map[string][]models.Provider),
	}
}

const dayFormat = "2006-01-02"

func memKey(key CacheKey) string {
	start := ""
	if key.Start != nil {
		start = key.Start.Format(dayFormat)
	}
	return strings.Join([]string{key.Op, start, key.End.Format(dayFormat), key.Digest, key.Dim}, "|")
}

func (s *MemStorage) GetAggregate(_ context.Context, key CacheKey) (*AggregateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.aggregates[memKey(key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemStorage) PutAggregate(_ context.Context, key CacheKey, rec AggregateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates[memKey(key)] = rec
	return nil
}

func (s *MemStorage) GetDetail(_ context.Context, key CacheKey) (*DetailRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.details[memKey(key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemStorage) PutDetail(_ context.Context, key CacheKey, rec DetailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[memKey(key)] = rec
	return nil
}

func (s *MemStorage) LatestSnapshotDate(_ context.Context, maxDate time.Time) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	for day := range s.snapshots {
		d, err := time.ParseInLocation(dayFormat, day, maxDate.Location())
		if err != nil {
			continue
		}
		if d.After(maxDate) {
			continue
		}
		if latest == nil || d.After(*latest) {
			copied := d
			latest = &copied
		}
	}
	return latest, nil
}

func matchesSearch(it models.CatalogItem, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(it.Description), needle) ||
		strings.Contains(strings.ToLower(it.Barcode), needle) ||
		strings.Contains(strings.ToLower(it.ProductCode), needle)
}

func (s *MemStorage) SnapshotPage(_ context.Context, date time.Time, providerIDs []string, search string, page, pageSize int) (int, []models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[string]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		allowed[id] = struct{}{}
	}

	var filtered []models.CatalogItem
	for _, it := range s.snapshots[date.Format(dayFormat)] {
		if _, ok := allowed[it.ProviderID]; !ok {
			continue
		}
		if !matchesSearch(it, search) {
			continue
		}
		filtered = append(filtered, it)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Description != filtered[j].Description {
			return filtered[i].Description < filtered[j].Description
		}
		return filtered[i].ProviderID < filtered[j].ProviderID
	})

	total := len(filtered)
	if page < 1 {
		page = 1
	}
	from := (page - 1) * pageSize
	if from >= total {
		return total, nil, nil
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return total, filtered[from:to], nil
}

func (s *MemStorage) UpsertSnapshot(_ context.Context, providerID string, date time.Time, items []models.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := date.Format(dayFormat)
	if s.snapshots[day] == nil {
		s.snapshots[day] = make(map[string]models.CatalogItem)
	}
	for _, it := range items {
		it.ProviderID = providerID
		s.snapshots[day][providerID+"|"+it.ProductCode] = it
	}
	return nil
}

func (s *MemStorage) LatestDirectoryDate(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	for day := range s.directory {
		d, err := time.Parse(dayFormat, day)
		if err != nil {
			continue
		}
		if latest == nil || d.After(*latest) {
			copied := d
			latest = &copied
		}
	}
	return latest, nil
}

func (s *MemStorage) ListProviders(_ context.Context, date time.Time, onlyActive bool) ([]models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var providers []models.Provider
	for _, p := range s.directory[date.Format(dayFormat)] {
		if onlyActive && !p.Active {
			continue
		}
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return providers, nil
}

func (s *MemStorage) ReplaceDirectory(_ context.Context, date time.Time, providers []models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory[date.Format(dayFormat)] = append([]models.Provider(nil), providers...)
	return nil
}

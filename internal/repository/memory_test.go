package repository

import (
	"context"
	"testing"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMemStorageAggregates(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()

	start := day(2024, 6, 1)
	key := CacheKey{Op: "net_sales", Start: &start, End: day(2024, 6, 14), Digest: "d1", Dim: "main"}

	got, err := s.GetAggregate(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %v, %v", got, err)
	}

	rec := AggregateRecord{
		Value:        decimal.RequireFromString("1234.56"),
		LastSyncedAt: day(2024, 6, 15),
		SourceDigest: "d1",
	}
	if err := s.PutAggregate(ctx, key, rec); err != nil {
		t.Fatalf("put aggregate: %v", err)
	}

	got, err = s.GetAggregate(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %v, %v", got, err)
	}
	if !got.Value.Equal(rec.Value) {
		t.Fatalf("unexpected value: %s", got.Value)
	}

	// Другой набор поставщиков — другой ключ.
	other := key
	other.Digest = "d2"
	if got, _ := s.GetAggregate(ctx, other); got != nil {
		t.Fatalf("digest must be part of the key")
	}

	// Повторная запись перезаписывает.
	rec.Value = decimal.RequireFromString("999.99")
	if err := s.PutAggregate(ctx, key, rec); err != nil {
		t.Fatalf("overwrite aggregate: %v", err)
	}
	got, _ = s.GetAggregate(ctx, key)
	if !got.Value.Equal(rec.Value) {
		t.Fatalf("expected overwritten value, got %s", got.Value)
	}
}

func TestMemStorageDetails(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()

	key := CacheKey{Op: "net_sales_detail", End: day(2024, 6, 14), Digest: "d1"}

	got, err := s.GetDetail(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %v, %v", got, err)
	}

	rec := DetailRecord{
		Payload:      []byte(`[{"product_code":"P1"}]`),
		RowCount:     1,
		LastSyncedAt: day(2024, 6, 15),
		SourceDigest: "d1",
	}
	if err := s.PutDetail(ctx, key, rec); err != nil {
		t.Fatalf("put detail: %v", err)
	}

	got, err = s.GetDetail(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %v, %v", got, err)
	}
	if got.RowCount != 1 || string(got.Payload) != string(rec.Payload) {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMemStorageSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()

	items := []models.CatalogItem{
		{ProductCode: "P1", Description: "Green tea", Barcode: "46000001"},
		{ProductCode: "P2", Description: "Black tea", Barcode: "46000002"},
		{ProductCode: "P3", Description: "Coffee", Barcode: "46000003"},
	}
	if err := s.UpsertSnapshot(ctx, "A", day(2024, 6, 10), items); err != nil {
		t.Fatalf("upsert snapshot: %v", err)
	}
	if err := s.UpsertSnapshot(ctx, "B", day(2024, 6, 12), items[:1]); err != nil {
		t.Fatalf("upsert snapshot: %v", err)
	}

	latest, err := s.LatestSnapshotDate(ctx, day(2024, 6, 11))
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if latest == nil || !latest.Equal(day(2024, 6, 10)) {
		t.Fatalf("expected 2024-06-10, got %v", latest)
	}

	latest, _ = s.LatestSnapshotDate(ctx, day(2024, 6, 9))
	if latest != nil {
		t.Fatalf("expected no snapshot before 2024-06-10, got %v", latest)
	}

	total, page, err := s.SnapshotPage(ctx, day(2024, 6, 10), []string{"A"}, "tea", 1, 10)
	if err != nil {
		t.Fatalf("snapshot page: %v", err)
	}
	if total != 2 || len(page) != 2 {
		t.Fatalf("expected 2 tea rows, got total %d, page %d", total, len(page))
	}
	// Сортировка по описанию.
	if page[0].Description != "Black tea" || page[1].Description != "Green tea" {
		t.Fatalf("unexpected order: %+v", page)
	}

	// Страница за пределами выборки.
	total, page, err = s.SnapshotPage(ctx, day(2024, 6, 10), []string{"A"}, "", 5, 10)
	if err != nil || total != 3 || page != nil {
		t.Fatalf("expected empty page with total 3, got %d, %v, %v", total, page, err)
	}

	// Чужой поставщик не виден.
	total, _, _ = s.SnapshotPage(ctx, day(2024, 6, 10), []string{"B"}, "", 1, 10)
	if total != 0 {
		t.Fatalf("expected no rows for provider B on 2024-06-10, got %d", total)
	}
}

func TestMemStorageDirectory(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()

	latest, err := s.LatestDirectoryDate(ctx)
	if err != nil || latest != nil {
		t.Fatalf("expected empty directory, got %v, %v", latest, err)
	}

	providers := []models.Provider{
		{ID: "B", DisplayName: "Beta", Active: false},
		{ID: "A", DisplayName: "Alpha", Active: true},
	}
	if err := s.ReplaceDirectory(ctx, day(2024, 6, 14), providers); err != nil {
		t.Fatalf("replace directory: %v", err)
	}

	latest, _ = s.LatestDirectoryDate(ctx)
	if latest == nil || !latest.Equal(day(2024, 6, 14)) {
		t.Fatalf("expected 2024-06-14, got %v", latest)
	}

	all, err := s.ListProviders(ctx, day(2024, 6, 14), false)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 providers, got %v, %v", all, err)
	}
	if all[0].ID != "A" || all[1].ID != "B" {
		t.Fatalf("expected sorted providers, got %+v", all)
	}

	active, _ := s.ListProviders(ctx, day(2024, 6, 14), true)
	if len(active) != 1 || active[0].ID != "A" {
		t.Fatalf("expected only active provider A, got %+v", active)
	}

	// Полная замена, а не слияние.
	if err := s.ReplaceDirectory(ctx, day(2024, 6, 14), providers[:1]); err != nil {
		t.Fatalf("replace directory: %v", err)
	}
	all, _ = s.ListProviders(ctx, day(2024, 6, 14), false)
	if len(all) != 1 || all[0].ID != "B" {
		t.Fatalf("expected directory replaced, got %+v", all)
	}
}

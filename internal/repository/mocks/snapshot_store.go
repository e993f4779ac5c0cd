package mocks

import (
	"context"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/repository"
)

type SnapshotStoreMock struct {
	LatestSnapshotDateFunc  func(ctx context.Context, maxDate time.Time) (*time.Time, error)
	SnapshotPageFunc        func(ctx context.Context, date time.Time, providerIDs []string, search string, page, pageSize int) (int, []models.CatalogItem, error)
	UpsertSnapshotFunc      func(ctx context.Context, providerID string, date time.Time, items []models.CatalogItem) error
	LatestSnapshotDateCalls int
	SnapshotPageCalls       int
	UpsertSnapshotCalls     int
}

func (m *SnapshotStoreMock) LatestSnapshotDate(ctx context.Context, maxDate time.Time) (*time.Time, error) {
	m.LatestSnapshotDateCalls++
	if m.LatestSnapshotDateFunc == nil {
		return nil, nil
	}
	return m.LatestSnapshotDateFunc(ctx, maxDate)
}

func (m *SnapshotStoreMock) SnapshotPage(ctx context.Context, date time.Time, providerIDs []string, search string, page, pageSize int) (int, []models.CatalogItem, error) {
	m.SnapshotPageCalls++
	if m.SnapshotPageFunc == nil {
		return 0, nil, errNotSet
	}
	return m.SnapshotPageFunc(ctx, date, providerIDs, search, page, pageSize)
}

func (m *SnapshotStoreMock) UpsertSnapshot(ctx context.Context, providerID string, date time.Time, items []models.CatalogItem) error {
	m.UpsertSnapshotCalls++
	if m.UpsertSnapshotFunc == nil {
		return nil
	}
	return m.UpsertSnapshotFunc(ctx, providerID, date, items)
}

var _ repository.SnapshotStore = (*SnapshotStoreMock)(nil)

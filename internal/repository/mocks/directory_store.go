package mocks

import (
	"context"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/repository"
)

type DirectoryStoreMock struct {
	LatestDirectoryDateFunc  func(ctx context.Context) (*time.Time, error)
	ListProvidersFunc        func(ctx context.Context, date time.Time, onlyActive bool) ([]models.Provider, error)
	ReplaceDirectoryFunc     func(ctx context.Context, date time.Time, providers []models.Provider) error
	LatestDirectoryDateCalls int
	ListProvidersCalls       int
	ReplaceDirectoryCalls    int
}

func (m *DirectoryStoreMock) LatestDirectoryDate(ctx context.Context) (*time.Time, error) {
	m.LatestDirectoryDateCalls++
	if m.LatestDirectoryDateFunc == nil {
		return nil, nil
	}
	return m.LatestDirectoryDateFunc(ctx)
}

func (m *DirectoryStoreMock) ListProviders(ctx context.Context, date time.Time, onlyActive bool) ([]models.Provider, error) {
	m.ListProvidersCalls++
	if m.ListProvidersFunc == nil {
		return nil, errNotSet
	}
	return m.ListProvidersFunc(ctx, date, onlyActive)
}

func (m *DirectoryStoreMock) ReplaceDirectory(ctx context.Context, date time.Time, providers []models.Provider) error {
	m.ReplaceDirectoryCalls++
	if m.ReplaceDirectoryFunc == nil {
		return nil
	}
	return m.ReplaceDirectoryFunc(ctx, date, providers)
}

var _ repository.DirectoryStore = (*DirectoryStoreMock)(nil)

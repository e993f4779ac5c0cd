package mocks

import (
	"context"
	"errors"

	"github.com/avetra/supplierhub/internal/repository"
)

type KPIStoreMock struct {
	GetAggregateFunc  func(ctx context.Context, key repository.CacheKey) (*repository.AggregateRecord, error)
	PutAggregateFunc  func(ctx context.Context, key repository.CacheKey, rec repository.AggregateRecord) error
	GetDetailFunc     func(ctx context.Context, key repository.CacheKey) (*repository.DetailRecord, error)
	PutDetailFunc     func(ctx context.Context, key repository.CacheKey, rec repository.DetailRecord) error
	GetAggregateCalls int
	PutAggregateCalls int
	GetDetailCalls    int
	PutDetailCalls    int
}

func (m *KPIStoreMock) GetAggregate(ctx context.Context, key repository.CacheKey) (*repository.AggregateRecord, error) {
	m.GetAggregateCalls++
	if m.GetAggregateFunc == nil {
		return nil, nil
	}
	return m.GetAggregateFunc(ctx, key)
}

func (m *KPIStoreMock) PutAggregate(ctx context.Context, key repository.CacheKey, rec repository.AggregateRecord) error {
	m.PutAggregateCalls++
	if m.PutAggregateFunc == nil {
		return nil
	}
	return m.PutAggregateFunc(ctx, key, rec)
}

func (m *KPIStoreMock) GetDetail(ctx context.Context, key repository.CacheKey) (*repository.DetailRecord, error) {
	m.GetDetailCalls++
	if m.GetDetailFunc == nil {
		return nil, nil
	}
	return m.GetDetailFunc(ctx, key)
}

func (m *KPIStoreMock) PutDetail(ctx context.Context, key repository.CacheKey, rec repository.DetailRecord) error {
	m.PutDetailCalls++
	if m.PutDetailFunc == nil {
		return nil
	}
	return m.PutDetailFunc(ctx, key, rec)
}

var _ repository.KPIStore = (*KPIStoreMock)(nil)

var errNotSet = errors.New("mock func not set")

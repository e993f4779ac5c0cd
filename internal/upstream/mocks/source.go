package mocks

import (
	"context"
	"errors"

	"github.com/avetra/supplierhub/internal/upstream"
)

// SourceMock реализует Source для юнит-тестов.
type SourceMock struct {
	CallFunc  func(ctx context.Context, op string, params map[string]string) (*upstream.Envelope, error)
	CallCalls int
	CalledOps []string
}

func (m *SourceMock) Call(ctx context.Context, op string, params map[string]string) (*upstream.Envelope, error) {
	m.CallCalls++
	m.CalledOps = append(m.CalledOps, op)
	if m.CallFunc == nil {
		return nil, errors.New("CallFunc not set")
	}
	return m.CallFunc(ctx, op, params)
}

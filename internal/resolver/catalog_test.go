package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/avetra/supplierhub/internal/repository/mocks"
	"github.com/avetra/supplierhub/internal/upstream"
	upstreammocks "github.com/avetra/supplierhub/internal/upstream/mocks"
)

func snapshotStoreWithDates(dates ...time.Time) *mocks.SnapshotStoreMock {
	return &mocks.SnapshotStoreMock{
		LatestSnapshotDateFunc: func(ctx context.Context, maxDate time.Time) (*time.Time, error) {
			var latest *time.Time
			for _, d := range dates {
				d := d
				if d.After(maxDate) {
					continue
				}
				if latest == nil || d.After(*latest) {
					latest = &d
				}
			}
			return latest, nil
		},
		SnapshotPageFunc: func(ctx context.Context, date time.Time, providerIDs []string, search string, page, pageSize int) (int, []models.CatalogItem, error) {
			return 1, []models.CatalogItem{{ProviderID: providerIDs[0], ProductCode: "SNAP"}}, nil
		},
	}
}

func TestCatalogExactOrAPIStrategy(t *testing.T) {
	// Снапшоты за 2024-06-01 и 2024-06-10, сегодня 2024-06-15.
	snapshots := []time.Time{day(2024, 6, 1), day(2024, 6, 10)}

	tests := []struct {
		name         string
		target       time.Time
		wantSource   string
		wantSnapDate *time.Time
	}{
		{"exact match uses snapshot", day(2024, 6, 10), SourceSnapshot, ptr(day(2024, 6, 10))},
		{"historical gap uses nearest past", day(2024, 6, 12), SourceSnapshot, ptr(day(2024, 6, 10))},
		{"today without exact snapshot goes live", day(2024, 6, 15), SourceUpstream, nil},
		{"future goes live", day(2024, 6, 20), SourceUpstream, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := snapshotStoreWithDates(snapshots...)
			source := &upstreammocks.SourceMock{
				CallFunc: func(ctx context.Context, op string, params map[string]string) (*upstream.Envelope, error) {
					return &upstream.Envelope{Success: true, Rows: []upstream.Row{
						{"product_code": "LIVE", "description": "Live row"},
					}}, nil
				},
			}
			r := NewCatalogResolver(store, source, testPolicy())

			got, err := r.Resolve(context.Background(), CatalogQuery{
				End:       tt.target,
				Providers: []string{"P1"},
				Strategy:  StrategyExactOrAPI,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Source != tt.wantSource {
				t.Fatalf("source = %s, want %s", got.Source, tt.wantSource)
			}
			if tt.wantSnapDate != nil {
				if got.SnapshotDate == nil || !got.SnapshotDate.Equal(*tt.wantSnapDate) {
					t.Fatalf("snapshot date = %v, want %v", got.SnapshotDate, tt.wantSnapDate)
				}
			}
		})
	}
}

func TestCatalogNearestPastStrategy(t *testing.T) {
	store := snapshotStoreWithDates(day(2024, 1, 1))
	source := &upstreammocks.SourceMock{}
	r := NewCatalogResolver(store, source, testPolicy())

	got, err := r.Resolve(context.Background(), CatalogQuery{
		End:       day(2024, 6, 15),
		Providers: []string{"P1"},
		Strategy:  StrategyNearestPast,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != SourceSnapshot {
		t.Fatalf("nearest_past must use any past snapshot, got %s", got.Source)
	}
	if source.CallCalls != 0 {
		t.Fatal("upstream must not be called")
	}
}

func TestCatalogUpstreamFallbackIsolation(t *testing.T) {
	store := &mocks.SnapshotStoreMock{}
	source := &upstreammocks.SourceMock{
		CallFunc: func(ctx context.Context, op string, params map[string]string) (*upstream.Envelope, error) {
			switch params["provider"] {
			case "X":
				return nil, errors.New("gateway timeout")
			case "Y":
				return &upstream.Envelope{Success: true, Rows: []upstream.Row{
					{"product_code": "Y-2", "description": "Beta"},
					{"product_code": "Y-1", "description": "Alpha"},
				}}, nil
			}
			return &upstream.Envelope{Success: false}, nil
		},
	}
	r := NewCatalogResolver(store, source, testPolicy())

	got, err := r.Resolve(context.Background(), CatalogQuery{
		End:       day(2024, 6, 15),
		Providers: []string{"X", "Y"},
	})
	if err != nil {
		t.Fatalf("one failing provider must not abort the page: %v", err)
	}
	if got.Source != SourceUpstream {
		t.Fatalf("source = %s, want upstream", got.Source)
	}
	if got.Total != 2 || len(got.Items) != 2 {
		t.Fatalf("expected only Y rows, got total=%d items=%d", got.Total, len(got.Items))
	}
	for _, it := range got.Items {
		if it.ProviderID != "Y" {
			t.Fatalf("unexpected provider %s in merged result", it.ProviderID)
		}
	}
	if got.Items[0].Description != "Alpha" || got.Items[1].Description != "Beta" {
		t.Fatalf("rows not ordered by description: %+v", got.Items)
	}
}

func TestCatalogUpstreamSearchAndPaging(t *testing.T) {
	store := &mocks.SnapshotStoreMock{}
	source := &upstreammocks.SourceMock{
		CallFunc: func(ctx context.Context, op string, params map[string]string) (*upstream.Envelope, error) {
			return &upstream.Envelope{Success: true, Rows: []upstream.Row{
				{"product_code": "C-1", "description": "Green tea", "barcode": "111"},
				{"product_code": "C-2", "description": "Black tea", "barcode": "222"},
				{"product_code": "C-3", "description": "Coffee", "barcode": "333"},
				{"product_code": "C-4", "description": "Herbal tea", "barcode": "444"},
			}}, nil
		},
	}
	r := NewCatalogResolver(store, source, testPolicy())

	got, err := r.Resolve(context.Background(), CatalogQuery{
		End:       day(2024, 6, 15),
		Providers: []string{"P1"},
		Search:    "TEA",
		Page:      2,
		PageSize:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 3 {
		t.Fatalf("total = %d, want 3", got.Total)
	}
	if len(got.Items) != 1 || got.Items[0].Description != "Herbal tea" {
		t.Fatalf("unexpected second page: %+v", got.Items)
	}
}

func TestCatalogEmptyProviderSet(t *testing.T) {
	store := &mocks.SnapshotStoreMock{}
	source := &upstreammocks.SourceMock{}
	r := NewCatalogResolver(store, source, testPolicy())

	got, err := r.Resolve(context.Background(), CatalogQuery{End: day(2024, 6, 15)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 0 || len(got.Items) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if store.LatestSnapshotDateCalls != 0 || source.CallCalls != 0 {
		t.Fatal("empty set must short-circuit before store and upstream")
	}
}

func ptr(t time.Time) *time.Time { return &t }

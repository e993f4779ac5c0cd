package repository

import (
	"context"
	"time"

	"github.com/avetra/supplierhub/internal/models"
	"github.com/shopspring/decimal"
)

// CacheKey адресует сохраненный результат запроса: операция, период,
// дайджест канонического набора поставщиков и необязательное
// дополнительное измерение (код склада или компании).
type CacheKey struct {
	Op     string
	Start  *time.Time
	End    time.Time
	Digest string
	Dim    string
}

// AggregateRecord содержит сохраненное скалярное значение KPI.
type AggregateRecord struct {
	Value        decimal.Decimal
	LastSyncedAt time.Time
	ExpiresAt    *time.Time
	SourceDigest string
}

// DetailRecord содержит сохраненный списочный результат: сериализованные
// строки плюс их количество.
type DetailRecord struct {
	Payload      []byte
	RowCount     int
	LastSyncedAt time.Time
	ExpiresAt    *time.Time
	SourceDigest string
}

// KPIStore хранит результаты агрегатных и детальных запросов.
// Get-методы возвращают (nil, nil), если записи нет.
type KPIStore interface {
	GetAggregate(ctx context.Context, key CacheKey) (*AggregateRecord, error)
	PutAggregate(ctx context.Context, key CacheKey, rec AggregateRecord) error
	GetDetail(ctx context.Context, key CacheKey) (*DetailRecord, error)
	PutDetail(ctx context.Context, key CacheKey, rec DetailRecord) error
}

// SnapshotStore хранит дневные снапшоты каталога.
type SnapshotStore interface {
	// LatestSnapshotDate возвращает дату последнего снапшота, не позднее
	// maxDate, либо nil, если снапшотов нет.
	LatestSnapshotDate(ctx context.Context, maxDate time.Time) (*time.Time, error)
	// SnapshotPage читает страницу снапшота за точную дату с фильтрами по
	// поставщикам и поисковой строке. Возвращает общее число строк и страницу.
	SnapshotPage(ctx context.Context, date time.Time, providerIDs []string, search string, page, pageSize int) (int, []models.CatalogItem, error)
	// UpsertSnapshot записывает строки снапшота одного поставщика за одну
	// дату в одной транзакции.
	UpsertSnapshot(ctx context.Context, providerID string, date time.Time, items []models.CatalogItem) error
}

// DirectoryStore хранит справочник поставщиков по датам снапшота.
type DirectoryStore interface {
	LatestDirectoryDate(ctx context.Context) (*time.Time, error)
	ListProviders(ctx context.Context, date time.Time, onlyActive bool) ([]models.Provider, error)
	// ReplaceDirectory записывает справочник за дату: по одному upsert на
	// запись, все в одной транзакции.
	ReplaceDirectory(ctx context.Context, date time.Time, providers []models.Provider) error
}

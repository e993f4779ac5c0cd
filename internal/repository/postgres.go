package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/avetra/supplierhub/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStorage реализует KPIStore, SnapshotStore и DirectoryStore
// поверх PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

// Одна таблица на пару (операция, детальность); детальные операции
// носят собственные имена, поэтому имя таблицы выводится из операции.
func tableFor(op string) string {
	return "kpi_" + op
}

// Ключевые колонки не допускают NULL, отсутствующее начало диапазона
// хранится нулевой датой.
func rangeStart(key CacheKey) time.Time {
	if key.Start == nil {
		return time.Time{}
	}
	return *key.Start
}

func keyWhere(key CacheKey) sq.Eq {
	return sq.Eq{
		"range_start": rangeStart(key),
		"range_end":   key.End,
		"set_digest":  key.Digest,
		"dim":         key.Dim,
	}
}

func (r *PostgresStorage) GetAggregate(ctx context.Context, key CacheKey) (*AggregateRecord, error) {
	query, args, err := qb.
		Select("value", "last_synced_at", "expires_at", "source_digest").
		From(tableFor(key.Op)).
		Where(keyWhere(key)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build aggregate select: %w", err)
	}

	var (
		value string
		rec   AggregateRecord
	)
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&value, &rec.LastSyncedAt, &rec.ExpiresAt, &rec.SourceDigest); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get aggregate %s: %w", key.Op, err)
	}

	rec.Value, err = decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("stored value %q for %s: %w", value, key.Op, err)
	}
	return &rec, nil
}

func (r *PostgresStorage) PutAggregate(ctx context.Context, key CacheKey, rec AggregateRecord) error {
	query, args, err := qb.
		Insert(tableFor(key.Op)).
		Columns("range_start", "range_end", "set_digest", "dim", "value", "last_synced_at", "expires_at", "source_digest").
		Values(rangeStart(key), key.End, key.Digest, key.Dim, rec.Value.String(), rec.LastSyncedAt, rec.ExpiresAt, rec.SourceDigest).
		Suffix(`ON CONFLICT (range_start, range_end, set_digest, dim) DO UPDATE
			SET value = EXCLUDED.value,
			    last_synced_at = EXCLUDED.last_synced_at,
			    expires_at = EXCLUDED.expires_at,
			    source_digest = EXCLUDED.source_digest`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build aggregate upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("put aggregate %s: %w", key.Op, err)
	}
	return nil
}

func (r *PostgresStorage) GetDetail(ctx context.Context, key CacheKey) (*DetailRecord, error) {
	query, args, err := qb.
		Select("payload", "row_count", "last_synced_at", "expires_at", "source_digest").
		From(tableFor(key.Op)).
		Where(keyWhere(key)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build detail select: %w", err)
	}

	var rec DetailRecord
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&rec.Payload, &rec.RowCount, &rec.LastSyncedAt, &rec.ExpiresAt, &rec.SourceDigest); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get detail %s: %w", key.Op, err)
	}
	return &rec, nil
}

func (r *PostgresStorage) PutDetail(ctx context.Context, key CacheKey, rec DetailRecord) error {
	query, args, err := qb.
		Insert(tableFor(key.Op)).
		Columns("range_start", "range_end", "set_digest", "dim", "payload", "row_count", "last_synced_at", "expires_at", "source_digest").
		Values(rangeStart(key), key.End, key.Digest, key.Dim, rec.Payload, rec.RowCount, rec.LastSyncedAt, rec.ExpiresAt, rec.SourceDigest).
		Suffix(`ON CONFLICT (range_start, range_end, set_digest, dim) DO UPDATE
			SET payload = EXCLUDED.payload,
			    row_count = EXCLUDED.row_count,
			    last_synced_at = EXCLUDED.last_synced_at,
			    expires_at = EXCLUDED.expires_at,
			    source_digest = EXCLUDED.source_digest`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build detail upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("put detail %s: %w", key.Op, err)
	}
	return nil
}

func (r *PostgresStorage) LatestSnapshotDate(ctx context.Context, maxDate time.Time) (*time.Time, error) {
	query, args, err := qb.
		Select("MAX(snapshot_date)").
		From("catalog_snapshots").
		Where(sq.LtOrEq{"snapshot_date": maxDate}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest snapshot select: %w", err)
	}

	var latest *time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("latest snapshot date: %w", err)
	}
	return latest, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func snapshotWhere(date time.Time, providerIDs []string, search string) sq.And {
	where := sq.And{
		sq.Eq{"snapshot_date": date},
		sq.Eq{"provider_id": providerIDs},
	}
	if search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"description": pattern},
			sq.ILike{"barcode": pattern},
			sq.ILike{"product_code": pattern},
		})
	}
	return where
}

func (r *PostgresStorage) SnapshotPage(ctx context.Context, date time.Time, providerIDs []string, search string, page, pageSize int) (int, []models.CatalogItem, error) {
	where := snapshotWhere(date, providerIDs, search)

	countQuery, countArgs, err := qb.Select("COUNT(*)").From("catalog_snapshots").Where(where).ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("build snapshot count: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count snapshot rows: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query, args, err := qb.
		Select("provider_id", "product_code", "barcode", "description", "brand", "family", "units", "price").
		From("catalog_snapshots").
		Where(where).
		OrderBy("description ASC", "provider_id ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("build snapshot page: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("query snapshot page: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var it models.CatalogItem
		if err := rows.Scan(&it.ProviderID, &it.ProductCode, &it.Barcode, &it.Description,
			&it.Brand, &it.Family, &it.Units, &it.Price); err != nil {
			return 0, nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("scan snapshot rows: %w", err)
	}
	return total, items, nil
}

func (r *PostgresStorage) UpsertSnapshot(ctx context.Context, providerID string, date time.Time, items []models.CatalogItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		query, args, err := qb.
			Insert("catalog_snapshots").
			Columns("provider_id", "snapshot_date", "product_code", "barcode", "description", "brand", "family", "units", "price").
			Values(providerID, date, it.ProductCode, it.Barcode, it.Description, it.Brand, it.Family, it.Units, it.Price).
			Suffix(`ON CONFLICT (provider_id, snapshot_date, product_code) DO UPDATE
				SET barcode = EXCLUDED.barcode,
				    description = EXCLUDED.description,
				    brand = EXCLUDED.brand,
				    family = EXCLUDED.family,
				    units = EXCLUDED.units,
				    price = EXCLUDED.price`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build snapshot upsert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert snapshot row %s: %w", it.ProductCode, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresStorage) LatestDirectoryDate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	if err := r.pool.QueryRow(ctx, `SELECT MAX(snapshot_date) FROM provider_directory`).Scan(&latest); err != nil {
		return nil, fmt.Errorf("latest directory date: %w", err)
	}
	return latest, nil
}

func (r *PostgresStorage) ListProviders(ctx context.Context, date time.Time, onlyActive bool) ([]models.Provider, error) {
	b := qb.
		Select("provider_id", "display_name", "active").
		From("provider_directory").
		Where(sq.Eq{"snapshot_date": date}).
		OrderBy("provider_id ASC")
	if onlyActive {
		b = b.Where(sq.Eq{"active": true})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build directory select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Active); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan provider rows: %w", err)
	}
	return providers, nil
}

// ReplaceDirectory пишет по одному upsert на запись внутри одной
// транзакции: частично засеянный справочник не виден ни при каком сбое.
func (r *PostgresStorage) ReplaceDirectory(ctx context.Context, date time.Time, providers []models.Provider) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, p := range providers {
		query, args, err := qb.
			Insert("provider_directory").
			Columns("provider_id", "snapshot_date", "display_name", "active").
			Values(p.ID, date, p.DisplayName, p.Active).
			Suffix(`ON CONFLICT (provider_id, snapshot_date) DO UPDATE
				SET display_name = EXCLUDED.display_name,
				    active = EXCLUDED.active`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build directory upsert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert provider %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

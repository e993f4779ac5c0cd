package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/avetra/supplierhub/internal/canonical"
	"github.com/avetra/supplierhub/internal/freshness"
	"github.com/avetra/supplierhub/internal/numeric"
	"github.com/avetra/supplierhub/internal/repository"
	"github.com/avetra/supplierhub/internal/telemetry"
	"github.com/avetra/supplierhub/internal/upstream"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownOperation возвращается, когда запрошена незарегистрированная операция.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidRange возвращается, когда начало диапазона позже конца либо конец не задан.
	ErrInvalidRange = errors.New("invalid date range")
)

// Query содержит параметры одного разрешения KPI.
type Query struct {
	Start        *time.Time
	End          time.Time
	Providers    []string
	Dim          string
	ForceRefresh bool
}

// Value содержит результат разрешения: скаляр либо список строк, по форме операции.
type Value struct {
	Scalar decimal.Decimal
	Rows   []upstream.Row
}

// Resolver реализует сквозной кеш результатов агрегатных и детальных запросов.
type Resolver struct {
	store   repository.KPIStore
	source  upstream.Source
	policy  freshness.Policy
	ttls    map[string]time.Duration
	metrics *telemetry.Metrics
}

// NewResolver создает резолвер. ttls — переопределения TTL по операциям
// из конфигурации; metrics может быть nil.
func NewResolver(store repository.KPIStore, source upstream.Source, policy freshness.Policy, ttls map[string]time.Duration, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{
		store:   store,
		source:  source,
		policy:  policy,
		ttls:    ttls,
		metrics: metrics,
	}
}

// Resolve отвечает на запрос KPI: свежая запись кеша, иначе внешний API,
// при его сбое — устаревшая запись либо нулевое значение. Транспортные
// ошибки источника вызывающему не возвращаются; ошибкой являются только
// нарушения предусловий.
func (r *Resolver) Resolve(ctx context.Context, opName string, q Query) (Value, error) {
	op, err := LookupOperation(opName)
	if err != nil {
		return Value{}, err
	}
	if q.End.IsZero() {
		return Value{}, fmt.Errorf("%w: missing end date", ErrInvalidRange)
	}
	if q.Start != nil && q.Start.After(q.End) {
		return Value{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			q.Start.Format("2006-01-02"), q.End.Format("2006-01-02"))
	}

	// Пустой набор поставщиков гасит запрос до любых обращений к
	// хранилищу и источнику.
	set := canonical.Canonicalize(q.Providers)
	if set.Empty() {
		return Value{}, nil
	}

	key := r.cacheKey(op, q, set)

	// Существующая запись читается всегда, даже при принудительном
	// обновлении: она же — запасной вариант при сбое источника.
	var (
		agg *repository.AggregateRecord
		det *repository.DetailRecord
	)
	var readErr error
	if op.Shape == ShapeScalar {
		agg, readErr = r.store.GetAggregate(ctx, key)
	} else {
		det, readErr = r.store.GetDetail(ctx, key)
	}
	if readErr != nil {
		// Сбой чтения хранилища равнозначен промаху.
		log.Printf("cache read %s failed: %v", op.Name, readErr)
	}

	if !q.ForceRefresh {
		if agg != nil && r.policy.Usable(agg.ExpiresAt) {
			r.metrics.CacheHit(op.Name)
			return Value{Scalar: agg.Value}, nil
		}
		if det != nil && r.policy.Usable(det.ExpiresAt) {
			if rows, derr := decodeRows(det.Payload); derr == nil {
				r.metrics.CacheHit(op.Name)
				return Value{Rows: rows}, nil
			} else {
				log.Printf("cache payload %s is unreadable: %v", op.Name, derr)
			}
		}
	}
	r.metrics.CacheMiss(op.Name)

	env, callErr := r.source.Call(ctx, op.Name, r.params(op, q, set))

	if op.Shape == ShapeScalar {
		value, ok := scalarFromEnvelope(env, callErr, op)
		if !ok {
			r.logUpstreamFailure(op, callErr)
			if agg != nil {
				r.metrics.StaleFallback(op.Name)
				return Value{Scalar: agg.Value}, nil
			}
			return Value{}, nil
		}
		rec := repository.AggregateRecord{
			Value:        value,
			LastSyncedAt: r.policy.Now(),
			ExpiresAt:    r.expiry(op, q.End),
			SourceDigest: set.Digest,
		}
		if err := r.store.PutAggregate(ctx, key, rec); err != nil {
			// Несохраненный кеш не должен ронять запрос с готовым значением.
			log.Printf("cache write %s failed: %v", op.Name, err)
		}
		return Value{Scalar: value}, nil
	}

	rows, ok := rowsFromEnvelope(env, callErr, op)
	if !ok {
		r.logUpstreamFailure(op, callErr)
		if det != nil {
			if stale, derr := decodeRows(det.Payload); derr == nil {
				r.metrics.StaleFallback(op.Name)
				return Value{Rows: stale}, nil
			}
		}
		return Value{}, nil
	}
	if payload, merr := json.Marshal(rows); merr != nil {
		log.Printf("encode %s payload failed: %v", op.Name, merr)
	} else {
		rec := repository.DetailRecord{
			Payload:      payload,
			RowCount:     len(rows),
			LastSyncedAt: r.policy.Now(),
			ExpiresAt:    r.expiry(op, q.End),
			SourceDigest: set.Digest,
		}
		if err := r.store.PutDetail(ctx, key, rec); err != nil {
			log.Printf("cache write %s failed: %v", op.Name, err)
		}
	}
	return Value{Rows: rows}, nil
}

func (r *Resolver) cacheKey(op Operation, q Query, set canonical.Set) repository.CacheKey {
	key := repository.CacheKey{
		Op:     op.Name,
		End:    freshness.DateOnly(q.End),
		Digest: set.Digest,
		Dim:    q.Dim,
	}
	if !op.RefDateOnly && q.Start != nil {
		start := freshness.DateOnly(*q.Start)
		key.Start = &start
	}
	return key
}

// params собирает параметры вызова источника: человекочитаемые даты плюс
// канонизированный список поставщиков.
func (r *Resolver) params(op Operation, q Query, set canonical.Set) map[string]string {
	p := map[string]string{
		"providers": strings.Join(set.IDs, ","),
	}
	if op.RefDateOnly {
		p["date"] = upstream.DateParam(q.End)
	} else {
		start := q.End
		if q.Start != nil {
			start = *q.Start
		}
		p["date_from"] = upstream.DateParam(start)
		p["date_to"] = upstream.DateParam(q.End)
	}
	if q.Dim != "" {
		p["warehouse"] = q.Dim
	}
	return p
}

func (r *Resolver) expiry(op Operation, end time.Time) *time.Time {
	ttl := r.ttls[op.Name]
	if ttl <= 0 {
		ttl = op.TTL
	}
	return r.policy.Expiry(end, ttl)
}

func (r *Resolver) logUpstreamFailure(op Operation, err error) {
	r.metrics.UpstreamFailure(op.Name)
	if err != nil {
		log.Printf("upstream %s failed: %v", op.Name, err)
	} else {
		log.Printf("upstream %s returned a malformed or non-success payload", op.Name)
	}
}

// scalarFromEnvelope извлекает и нормализует скалярное значение. Ответ
// считается пригодным, только если источник сообщил успех и ожидаемое
// поле разобралось в число.
func scalarFromEnvelope(env *upstream.Envelope, err error, op Operation) (decimal.Decimal, bool) {
	if err != nil || env == nil || !env.Success || env.Row == nil {
		return decimal.Zero, false
	}
	raw, ok := env.Row[op.Field]
	if !ok || raw == nil {
		return decimal.Zero, false
	}
	value, nerr := numeric.Normalize(stringify(raw), op.Places)
	if nerr != nil {
		return decimal.Zero, false
	}
	return value, true
}

// rowsFromEnvelope возвращает детальные строки с нормализованными
// числовыми полями. Пустой список строк — корректный ответ.
func rowsFromEnvelope(env *upstream.Envelope, err error, op Operation) ([]upstream.Row, bool) {
	if err != nil || env == nil || !env.Success {
		return nil, false
	}
	rows := make([]upstream.Row, 0, len(env.Rows))
	for _, src := range env.Rows {
		row := make(upstream.Row, len(src))
		for k, v := range src {
			row[k] = v
		}
		for field, places := range op.RowFields {
			raw, ok := row[field]
			if !ok || raw == nil {
				continue
			}
			if canon, nerr := numeric.Canonical(stringify(raw), places); nerr == nil {
				row[field] = canon
			} else {
				log.Printf("row field %s.%s %q is not numeric: %v", op.Name, field, stringify(raw), nerr)
			}
		}
		rows = append(rows, row)
	}
	return rows, true
}

func decodeRows(payload []byte) ([]upstream.Row, error) {
	var rows []upstream.Row
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

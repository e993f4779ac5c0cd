// Package freshness содержит политику свежести кешированных результатов.
package freshness

import "time"

// DefaultTTL задает срок годности записей по открытым диапазонам, если
// для операции не задан собственный.
const DefaultTTL = 900 * time.Second

// Clock выдает текущее время. Явная зависимость вместо time.Now,
// чтобы решения о свежести были детерминированными в тестах.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock возвращает часы на основе системного времени.
func SystemClock() Clock { return systemClock{} }

// Policy решает, открыт ли период запроса и когда истекает запись.
type Policy struct {
	clock Clock
	ttl   time.Duration
}

// NewPolicy создает политику с TTL по умолчанию для открытых диапазонов.
func NewPolicy(clock Clock, ttl time.Duration) Policy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Policy{clock: clock, ttl: ttl}
}

// Now возвращает текущий момент по часам политики.
func (p Policy) Now() time.Time { return p.clock.Now() }

// Today возвращает текущую календарную дату без времени суток.
func (p Policy) Today() time.Time { return DateOnly(p.clock.Now()) }

// IsOpen сообщает, открыт ли период, оканчивающийся ref: период открыт,
// если его конец приходится на сегодня или позже. Сравниваются только
// календарные даты. Начало диапазона намеренно не учитывается: диапазон,
// оканчивающийся сегодня, еще может измениться внутри дня.
func (p Policy) IsOpen(ref time.Time) bool {
	return !DateOnly(ref).Before(p.Today())
}

// Expiry возвращает срок годности записи для периода, оканчивающегося end.
// Закрытые периоды не истекают (nil); открытые истекают через TTL операции
// либо через TTL политики, если свой не задан.
func (p Policy) Expiry(end time.Time, ttl time.Duration) *time.Time {
	if !p.IsOpen(end) {
		return nil
	}
	if ttl <= 0 {
		ttl = p.ttl
	}
	at := p.clock.Now().Add(ttl)
	return &at
}

// Usable сообщает, можно ли отдать запись без обновления.
func (p Policy) Usable(expiresAt *time.Time) bool {
	return expiresAt == nil || p.clock.Now().Before(*expiresAt)
}

// DateOnly отбрасывает время суток, оставляя календарную дату.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

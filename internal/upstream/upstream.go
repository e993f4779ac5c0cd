// Package upstream описывает клиента внешнего агрегирующего API.
//
// Для движка кеша источник — непрозрачная функция: имя операции плюс
// плоский набор параметров на входе, конверт со статусом и данными на
// выходе. Транспортные детали наружу не выходят.
package upstream

import (
	"context"
	"time"
)

// Имена логических операций внешнего API.
const (
	OpNetSales          = "net_sales"
	OpUnitsSold         = "units_sold"
	OpActiveSKUs        = "active_skus"
	OpStockUnits        = "stock_units"
	OpStockValue        = "stock_value"
	OpNetSales6M        = "net_sales_6m"
	OpStockValue6M      = "stock_value_6m"
	OpNetSalesDetail    = "net_sales_detail"
	OpUnitsSoldDetail   = "units_sold_detail"
	OpActiveSKUsDetail  = "active_skus_detail"
	OpStockUnitsDetail  = "stock_units_detail"
	OpStockValueDetail  = "stock_value_detail"
	OpProviderDirectory = "provider_directory"
	OpCatalogPage       = "catalog_page"
)

// Row содержит одну строку данных из ответа API.
type Row map[string]any

// Envelope содержит разобранный ответ API. Success=false означает, что ответ
// пришел, но API сообщило об ошибке; для вызывающего это равнозначно
// транспортному сбою.
type Envelope struct {
	Success bool
	Row     Row
	Rows    []Row
}

// Source выполняет один логический вызов внешнего API.
type Source interface {
	Call(ctx context.Context, op string, params map[string]string) (*Envelope, error)
}

// DateParam форматирует дату так, как ожидает внешнее API.
func DateParam(t time.Time) string {
	return t.Format("02/01/2006")
}

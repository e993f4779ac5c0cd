// Package resolver содержит движок свежести: сквозной кеш агрегатных и
// детальных запросов, резолвер снапшотов каталога и кеш справочника
// поставщиков.
package resolver

import (
	"fmt"
	"time"

	"github.com/avetra/supplierhub/internal/numeric"
	"github.com/avetra/supplierhub/internal/upstream"
)

// Shape задает форму результата операции.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeDetail
)

// Operation описывает одну операцию внешнего API: форму результата,
// имена и точность числовых полей, собственный TTL. Все поведенческие
// различия KPI выражены здесь данными, а не отдельными функциями.
type Operation struct {
	Name   string
	Shape  Shape
	Field  string           // поле со значением для скалярных операций
	Places int32            // знаков после запятой у скалярного значения
	// Числовые поля детальных строк и их точность.
	RowFields map[string]int32
	// TTL операции для открытых периодов; 0 — TTL политики.
	TTL time.Duration
	// Операция привязана к одной опорной дате, начало диапазона не используется.
	RefDateOnly bool
}

var operations = map[string]Operation{
	upstream.OpNetSales: {
		Name:   upstream.OpNetSales,
		Shape:  ShapeScalar,
		Field:  "net_amount",
		Places: numeric.PlacesCurrency,
	},
	upstream.OpUnitsSold: {
		Name:   upstream.OpUnitsSold,
		Shape:  ShapeScalar,
		Field:  "units",
		Places: numeric.PlacesQuantity,
	},
	upstream.OpActiveSKUs: {
		Name:   upstream.OpActiveSKUs,
		Shape:  ShapeScalar,
		Field:  "sku_count",
		Places: numeric.PlacesCount,
	},
	upstream.OpStockUnits: {
		Name:        upstream.OpStockUnits,
		Shape:       ShapeScalar,
		Field:       "stock_units",
		Places:      numeric.PlacesQuantity,
		RefDateOnly: true,
	},
	upstream.OpStockValue: {
		Name:        upstream.OpStockValue,
		Shape:       ShapeScalar,
		Field:       "stock_value",
		Places:      numeric.PlacesCurrency,
		RefDateOnly: true,
	},
	upstream.OpNetSales6M: {
		Name:        upstream.OpNetSales6M,
		Shape:       ShapeDetail,
		RowFields:   map[string]int32{"net_amount": numeric.PlacesCurrency},
		RefDateOnly: true,
	},
	upstream.OpStockValue6M: {
		Name:        upstream.OpStockValue6M,
		Shape:       ShapeDetail,
		RowFields:   map[string]int32{"stock_value": numeric.PlacesCurrency},
		RefDateOnly: true,
	},
	upstream.OpNetSalesDetail: {
		Name:  upstream.OpNetSalesDetail,
		Shape: ShapeDetail,
		RowFields: map[string]int32{
			"net_amount": numeric.PlacesCurrency,
			"units":      numeric.PlacesQuantity,
		},
	},
	upstream.OpUnitsSoldDetail: {
		Name:      upstream.OpUnitsSoldDetail,
		Shape:     ShapeDetail,
		RowFields: map[string]int32{"units": numeric.PlacesQuantity},
	},
	upstream.OpActiveSKUsDetail: {
		Name:  upstream.OpActiveSKUsDetail,
		Shape: ShapeDetail,
	},
	upstream.OpStockUnitsDetail: {
		Name:        upstream.OpStockUnitsDetail,
		Shape:       ShapeDetail,
		RowFields:   map[string]int32{"stock_units": numeric.PlacesQuantity},
		RefDateOnly: true,
	},
	upstream.OpStockValueDetail: {
		Name:        upstream.OpStockValueDetail,
		Shape:       ShapeDetail,
		RowFields:   map[string]int32{"stock_value": numeric.PlacesCurrency},
		RefDateOnly: true,
	},
}

// LookupOperation возвращает описание операции по имени. Неизвестное имя —
// ошибка программирования вызывающего, она не глушится.
func LookupOperation(name string) (Operation, error) {
	op, ok := operations[name]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, nil
}

// Package numeric нормализует числа из ответов внешнего API.
//
// Внешний агрегатор возвращает числа в локализованном виде: запятая как
// десятичный разделитель, точки или пробелы как разделители тысяч.
// Перед сохранением и перед выдачей вызывающему значения приводятся к
// канонической десятичной форме с фиксированным числом знаков после
// запятой, чтобы сохраненные и свежие значения совпадали побитово.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Знаки после запятой по классам полей.
const (
	PlacesCurrency int32 = 2
	PlacesQuantity int32 = 3
	PlacesCount    int32 = 0
)

// Normalize разбирает локализованную запись числа и округляет ее до
// places знаков. Идемпотентна: нормализация уже канонической записи
// дает тот же результат.
func Normalize(s string, places int32) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if clean == "" {
		return decimal.Zero.Round(places), nil
	}

	lastDot := strings.LastIndexByte(clean, '.')
	lastComma := strings.LastIndexByte(clean, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Правее стоит десятичный разделитель, второй — разделитель тысяч.
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") > 1 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.Replace(clean, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(clean, ".") > 1 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse number %q: %w", s, err)
	}
	return d.Round(places), nil
}

// Canonical возвращает каноническую строковую запись числа с фиксированным
// числом знаков после запятой.
func Canonical(s string, places int32) (string, error) {
	d, err := Normalize(s, places)
	if err != nil {
		return "", err
	}
	return d.StringFixed(places), nil
}

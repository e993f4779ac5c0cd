// Package models содержит доменные модели приложения.
package models

// Provider описывает запись справочника поставщиков.
type Provider struct {
	ID          string `json:"provider_id" validate:"required,provider_id"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
}

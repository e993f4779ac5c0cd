package models

// CatalogItem описывает одну строку каталога поставщика в снапшоте.
type CatalogItem struct {
	ProviderID  string  `json:"provider_id" validate:"required,provider_id"`
	ProductCode string  `json:"product_code" validate:"required"`
	Barcode     string  `json:"barcode" validate:"omitempty,barcode"`
	Description string  `json:"description" validate:"required"`
	Brand       string  `json:"brand"`
	Family      string  `json:"family"`
	Units       float64 `json:"units" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// SnapshotMessage описывает сообщение фида каталога: полный снапшот
// одного поставщика за один день.
type SnapshotMessage struct {
	MessageID    string        `json:"message_id" validate:"required,uuid4"`
	ProviderID   string        `json:"provider_id" validate:"required,provider_id"`
	SnapshotDate string        `json:"snapshot_date" validate:"required,datetime=2006-01-02"`
	Items        []CatalogItem `json:"items" validate:"required,min=1,dive"`
}

// model/item.go
package model

type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	PricePerDay float64 `json:"price_per_day"`
	TotalStock  int     `json:"total_stock"`
	ImageRef    *string `json:"image_ref,omitempty"`
}

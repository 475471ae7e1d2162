package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryBeverage Category = "Beverage"
	CategoryGrocery  Category = "Grocery"
	CategorySnack    Category = "Snack"
)

// ParseCategory accepts the stored names case-insensitively plus the legacy
// "Drink" label. Blank input yields the default category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "beverage", "drink":
		return CategoryBeverage, true
	case "grocery":
		return CategoryGrocery, true
	case "snack":
		return CategorySnack, true
	}
	return "", false
}

// MenuCategories are the categories shown on the public menu.
var MenuCategories = []Category{CategoryBeverage, CategorySnack}

type Product struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Name      string          `gorm:"type:varchar(128);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Image     string          `gorm:"type:varchar(256)" json:"image,omitempty"`
	IsVisible bool            `gorm:"not null;index" json:"isVisible"`
	Category  Category        `gorm:"type:varchar(16);not null;index" json:"category"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

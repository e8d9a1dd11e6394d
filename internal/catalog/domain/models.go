package domain

import "time"

// Product is a purchasable catalog item. The catalog is owned elsewhere; this
// core only reads it. Amount is in the smallest currency unit.
type Product struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Currency  string    `gorm:"not null;default:'USD'" json:"currency"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

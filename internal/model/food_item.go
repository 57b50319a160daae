package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FoodItem is a dish listed by a seller.
type FoodItem struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller                 *User           `gorm:"foreignKey:SellerID" json:"-"`
	Name                   string          `gorm:"type:varchar(255);not null" json:"name"`
	Description            string          `gorm:"type:text" json:"description"`
	Price                  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category               string          `gorm:"type:varchar(100);index" json:"category"`
	Cuisine                string          `gorm:"type:varchar(100)" json:"cuisine"`
	ImageURL               string          `gorm:"type:text" json:"image_url"`
	IsAvailable            bool            `gorm:"not null;index" json:"is_available"`
	PreparationTimeMinutes int             `gorm:"type:int" json:"preparation_time_minutes"`
	Ingredients            string          `gorm:"type:text" json:"ingredients"`
	Allergens              string          `gorm:"type:text" json:"allergens"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	DeletedAt              gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (f *FoodItem) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

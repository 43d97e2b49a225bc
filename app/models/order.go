package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a tracked customer order belonging to a dashboard account.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	ClientID    uint           `gorm:"not null;index" json:"client_id"`
	Client      *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Reference   string         `gorm:"type:varchar(100);index" json:"reference" validate:"max=100"`
	Status      string         `gorm:"type:varchar(32);not null;default:'pending';index" json:"status" validate:"oneof=pending paid shipped delivered cancelled"`
	AmountCents int64          `gorm:"not null;default:0" json:"amount_cents" validate:"gte=0"`
	Currency    string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency" validate:"len=3"`
	Notes       string         `gorm:"type:text" json:"notes" validate:"max=2000"`
	PlacedAt    time.Time      `gorm:"type:timestamp;not null" json:"placed_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	return nil
}

// IsOpen reports whether the order still needs fulfilment work.
func (o *Order) IsOpen() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped:
		return true
	default:
		return false
	}
}

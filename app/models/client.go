package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer record owned by a dashboard account.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Email     string         `gorm:"type:varchar(200);index" json:"email" validate:"omitempty,email,max=200"`
	Phone     string         `gorm:"type:varchar(50);default:''" json:"phone" validate:"max=50"`
	Company   string         `gorm:"type:varchar(200);default:''" json:"company" validate:"max=200"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (cl *Client) BeforeCreate(tx *gorm.DB) error {
	if cl.UUID == "" {
		cl.UUID = uuid.New().String()
	}
	return nil
}

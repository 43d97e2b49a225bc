package repository

import (
	"time"

	"github.com/xpert786/SurePoint/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Client").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUUID(uuid string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Client").Where("uuid = ?", uuid).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByUserID returns the account's orders, optionally filtered by status.
func (r *orderRepository) GetByUserID(userID uint, status string, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.Preload("Client").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("placed_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *orderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) CountByUserID(userID uint, status string) (int64, error) {
	var count int64
	q := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}

// GetKPIs aggregates order count and revenue per status over a date range.
func (r *orderRepository) GetKPIs(userID uint, startDate, endDate time.Time) ([]OrderKPI, error) {
	var kpis []OrderKPI
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) as order_count, COALESCE(SUM(amount_cents), 0) as revenue_cents").
		Where("user_id = ? AND placed_at BETWEEN ? AND ?", userID, startDate, endDate).
		Group("status").
		Scan(&kpis).Error
	return kpis, err
}

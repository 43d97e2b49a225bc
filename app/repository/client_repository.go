package repository

import (
	"github.com/xpert786/SurePoint/app/models"
	"gorm.io/gorm"
)

// clientRepository implements the ClientRepository interface
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository instance
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}

func (r *clientRepository) GetByID(id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.First(&client, id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) GetByUUID(uuid string) (*models.Client, error) {
	var client models.Client
	err := r.db.Where("uuid = ?", uuid).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) GetByUserID(userID uint, offset, limit int) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Where("user_id = ?", userID).
		Order("name ASC").Offset(offset).Limit(limit).Find(&clients).Error
	return clients, err
}

func (r *clientRepository) Search(userID uint, query string) ([]models.Client, error) {
	var clients []models.Client
	like := "%" + query + "%"
	err := r.db.Where("user_id = ? AND (name LIKE ? OR email LIKE ? OR company LIKE ?)", userID, like, like, like).
		Order("name ASC").Limit(50).Find(&clients).Error
	return clients, err
}

func (r *clientRepository) Update(client *models.Client) error {
	return r.db.Save(client).Error
}

func (r *clientRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

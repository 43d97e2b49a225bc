package repository

import (
	"github.com/xpert786/SurePoint/app/models"
	"gorm.io/gorm"
)

// teamRepository implements the TeamRepository interface
type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository instance
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) ListByOwner(ownerID uint) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.Where("owner_id = ? AND status <> ?", ownerID, models.TeamMemberStatusRemoved).
		Order("created_at ASC").Find(&members).Error
	return members, err
}

func (r *teamRepository) GetMember(ownerID, userID uint) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.Where("owner_id = ? AND user_id = ?", ownerID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamRepository) Add(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

func (r *teamRepository) UpdateRole(ownerID, userID uint, role string) error {
	return r.db.Model(&models.TeamMember{}).
		Where("owner_id = ? AND user_id = ?", ownerID, userID).
		Update("role", role).Error
}

func (r *teamRepository) SetStatus(ownerID, userID uint, status string) error {
	return r.db.Model(&models.TeamMember{}).
		Where("owner_id = ? AND user_id = ?", ownerID, userID).
		Update("status", status).Error
}

func (r *teamRepository) Remove(ownerID, userID uint) error {
	return r.db.Model(&models.TeamMember{}).
		Where("owner_id = ? AND user_id = ?", ownerID, userID).
		Update("status", models.TeamMemberStatusRemoved).Error
}

func (r *teamRepository) CountByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.TeamMember{}).
		Where("owner_id = ? AND status <> ?", ownerID, models.TeamMemberStatusRemoved).
		Count(&count).Error
	return count, err
}

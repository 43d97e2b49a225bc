package repository

import (
	"time"

	"github.com/xpert786/SurePoint/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByUUID(uuid string) (*models.Order, error)
	GetByUserID(userID uint, status string, offset, limit int) ([]models.Order, error)
	Update(order *models.Order) error
	UpdateStatus(id uint, status string) error
	CountByUserID(userID uint, status string) (int64, error)
	GetKPIs(userID uint, startDate, endDate time.Time) ([]OrderKPI, error)
}

// ClientRepository defines the interface for client-related database operations
type ClientRepository interface {
	Create(client *models.Client) error
	GetByID(id uint) (*models.Client, error)
	GetByUUID(uuid string) (*models.Client, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Client, error)
	Search(userID uint, query string) ([]models.Client, error)
	Update(client *models.Client) error
	CountByUserID(userID uint) (int64, error)
}

// TeamRepository defines the interface for team membership operations
type TeamRepository interface {
	ListByOwner(ownerID uint) ([]models.TeamMember, error)
	GetMember(ownerID, userID uint) (*models.TeamMember, error)
	Add(member *models.TeamMember) error
	UpdateRole(ownerID, userID uint, role string) error
	SetStatus(ownerID, userID uint, status string) error
	Remove(ownerID, userID uint) error
	CountByOwner(ownerID uint) (int64, error)
}

// OrderKPI is one aggregate bucket of the order KPI rollup.
type OrderKPI struct {
	Status       string `json:"status"`
	OrderCount   int64  `json:"order_count"`
	RevenueCents int64  `json:"revenue_cents"`
}

// Repositories contains one instance of every repository
type Repositories struct {
	User   UserRepository
	Order  OrderRepository
	Client ClientRepository
	Team   TeamRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		Order:  NewOrderRepository(db),
		Client: NewClientRepository(db),
		Team:   NewTeamRepository(db),
	}
}

package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_OWNER      = "owner"
	ROLE_ADMIN      = "admin"
	ROLE_MEMBER     = "member"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// Billing sub-record statuses. These are the values the access gate reads.
const (
	BillingStatusInactive  = "inactive"
	BillingStatusActive    = "active"
	BillingStatusCancelled = "cancelled"
	BillingStatusFailed    = "failed"
)

// Legacy root-level payment statuses mirrored from the billing sub-record.
const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

const (
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// BillingRecord is the billing sub-record embedded in the user document. It is
// mutated exclusively through the billing updater; readers treat Status as the
// authoritative field and fall back to the legacy root-level mirrors only when
// the sub-record is unset.
type BillingRecord struct {
	Status             string     `gorm:"column:billing_status;type:varchar(32);not null;default:'inactive';index" json:"status"`
	Plan               string     `gorm:"column:billing_plan;type:varchar(32);default:''" json:"plan,omitempty"`
	PaymentDate        *time.Time `gorm:"column:billing_payment_date;type:timestamp;default:null" json:"payment_date,omitempty"`
	ProviderCustomerID string     `gorm:"column:billing_provider_customer_id;type:varchar(191);default:'';index" json:"provider_customer_id,omitempty"`
	ProviderSessionID  string     `gorm:"column:billing_provider_session_id;type:varchar(191);default:''" json:"provider_session_id,omitempty"`
	UpdatedAt          *time.Time `gorm:"column:billing_updated_at;type:timestamp;default:null" json:"updated_at,omitempty"`
	Version            uint64     `gorm:"column:billing_version;not null;default:0" json:"-"`
}

type User struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email           string        `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password        string        `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role            string        `gorm:"type:varchar(50);default:'member'" json:"role" validate:"oneof=owner admin member"`
	Status          string        `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	Company         string        `gorm:"type:varchar(200);default:null" json:"company" validate:"max=200"`
	Billing         BillingRecord `gorm:"embedded" json:"billing"`
	ActivationToken string        `gorm:"type:varchar(100);index" json:"-"`

	// Legacy mirror fields kept at the document root. Every billing writer
	// keeps these in sync with the sub-record; both copies must agree after
	// any successful write.
	PaymentStatus      string     `gorm:"type:varchar(32);not null;default:'unpaid'" json:"payment_status"`
	SubscriptionTier   string     `gorm:"type:varchar(32);default:''" json:"subscription_tier"`
	PaymentDate        *time.Time `gorm:"type:timestamp;default:null" json:"payment_date,omitempty"`
	ProviderCustomerID string     `gorm:"type:varchar(191);default:''" json:"provider_customer_id,omitempty"`

	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     username,
		Email:    email,
		Password: pw,
		Role:     ROLE_OWNER,
		Status:   STATUS_ACTIVE,
		Billing: BillingRecord{
			Status: BillingStatusInactive,
		},
		PaymentStatus: PaymentStatusUnpaid,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// GenerateActivationToken creates a random token for account activation links
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	return nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// EffectiveBillingStatus returns the billing sub-record status, falling back
// to the legacy root-level payment status for records written before the
// sub-record existed.
func (u *User) EffectiveBillingStatus() string {
	if u.Billing.Status != "" {
		return u.Billing.Status
	}
	return u.PaymentStatus
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer       = "customer"
	RoleSeller         = "seller"
	RoleDeliveryDriver = "delivery_driver"
	RoleAdmin          = "admin"
)

// User represents the central identity record. A user always has a password hash,
// a Google subject id, or both.
type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      *string   `gorm:"type:varchar(255)" json:"-"`
	FullName          string    `gorm:"type:varchar(255);not null" json:"full_name"`
	PhoneNumber       string    `gorm:"type:varchar(20)" json:"phone_number"`
	Role              string    `gorm:"type:varchar(50);not null;default:'customer'" json:"role"`
	IsVerified        bool      `gorm:"not null;default:false" json:"is_verified"`
	GoogleID          *string   `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	ProfilePictureURL string    `gorm:"type:text" json:"profile_picture_url"`

	// seller profile
	RestaurantName    string `gorm:"type:varchar(255)" json:"restaurant_name,omitempty"`
	RestaurantAddress string `gorm:"type:text" json:"restaurant_address,omitempty"`
	CuisineType       string `gorm:"type:varchar(100)" json:"cuisine_type,omitempty"`

	// driver profile
	VehicleType  string `gorm:"type:varchar(50)" json:"vehicle_type,omitempty"`
	LicensePlate string `gorm:"type:varchar(50)" json:"license_plate,omitempty"`

	// One-time tokens are stored as SHA-256 digests, never in plain text.
	VerificationTokenHash      *string    `gorm:"type:varchar(64);index" json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`
	ResetTokenHash             *string    `gorm:"type:varchar(64);index" json:"-"`
	ResetTokenExpiresAt        *time.Time `json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the id in Go so every driver gets the same uuid semantics.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasGoogle reports whether the account is linked to a Google subject.
func (u *User) HasGoogle() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// RefreshToken is an opaque, individually revocable session record. The ID is the
// token value handed to the client. Records are never deleted.
type RefreshToken struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Valid reports whether the record can still be exchanged at now.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionRegister       = "REGISTER"
	ActionLogin          = "LOGIN"
	ActionGoogleLogin    = "GOOGLE_LOGIN"
	ActionGoogleLink     = "GOOGLE_ACCOUNT_LINK"
	ActionLogout         = "LOGOUT"
	ActionRefresh        = "TOKEN_REFRESH"
	ActionEmailVerified  = "EMAIL_VERIFIED"
	ActionPasswordReset  = "PASSWORD_RESET"
	ActionPasswordChange = "PASSWORD_CHANGE"
	ActionProfileUpdate  = "PROFILE_UPDATE"
	ActionDeleteUser     = "DELETE_USER"
	ActionCreateFoodItem = "CREATE_FOOD_ITEM"
	ActionUpdateFoodItem = "UPDATE_FOOD_ITEM"
	ActionDeleteFoodItem = "DELETE_FOOD_ITEM"
)

// AuditLog tracks who did what and when for security relevant changes.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for anonymous actions
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // serialized JSON
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

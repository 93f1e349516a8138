package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leadstack/crm/internal/identity"
)

// User is an account able to call the API.
type User struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	Email        string        `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string        `gorm:"not null" json:"-"`
	DisplayName  string        `json:"display_name"`
	Role         identity.Role `gorm:"type:text;not null" json:"role"`
	IsActive     bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Identity returns the caller identity snapshot for this user.
func (u User) Identity() identity.Identity {
	return identity.Identity{UserID: u.ID, Role: u.Role}
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

// Employee is the HR profile, optionally linked to a login user.
type Employee struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`

	UserID      *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	Name        string        `gorm:"not null" json:"name"`
	Email       string        `json:"email,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Designation string        `json:"designation,omitempty"`
	Department  string        `json:"department,omitempty"`
	JoiningDate *time.Time    `json:"joining_date,omitempty"`

	visibility.Owned
	softdelete.Trashable

	Documents []Document `gorm:"foreignKey:EmployeeID" json:"documents,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

type DocumentKind string

const (
	DocumentContract DocumentKind = "contract"
	DocumentIDProof  DocumentKind = "id_proof"
	DocumentResume   DocumentKind = "resume"
	DocumentOther    DocumentKind = "other"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentContract, DocumentIDProof, DocumentResume, DocumentOther:
		return true
	default:
		return false
	}
}

// Document is one stored HR file reference. The file body lives on the
// storage provider; only the URL and external ID are kept here.
type Document struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	EmployeeID snowflake.ID `gorm:"not null;index" json:"employee_id"`

	Kind       DocumentKind `gorm:"type:text;not null" json:"kind"`
	FileName   string       `gorm:"not null" json:"file_name"`
	URL        string       `gorm:"not null" json:"url"`
	ExternalID string       `gorm:"not null" json:"external_id"`

	UploadedByID snowflake.ID `gorm:"not null" json:"uploaded_by_id"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Document) TableName() string { return "employee_documents" }

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is an instructor-curated library item (template, worksheet, link).
type Resource struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UploaderID  uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`
	Uploader    User      `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"uploader,omitempty"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	// Audience limits visibility: 'all', 'instructor', 'student'.
	Audience  string       `gorm:"size:20;not null;default:'all'" json:"audience"`
	FileURL   *string      `gorm:"type:text" json:"file_url,omitempty"`
	LinkURL   *string      `gorm:"type:text" json:"link_url,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:ResourceID" json:"attachments,omitempty"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

// Attachment is an uploaded asset. Rows with neither a reflection nor a
// resource parent are orphans and get swept by the cleanup job.
type Attachment struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid" json:"user_id"`
	ReflectionID *uuid.UUID  `gorm:"type:uuid" json:"reflection_id,omitempty"`
	Reflection   *Reflection `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ResourceID   *uuid.UUID  `gorm:"type:uuid" json:"resource_id,omitempty"`
	Resource     *Resource   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FileURL      string      `gorm:"type:text;not null" json:"file_url"`
	FileType     string      `gorm:"size:50" json:"file_type"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

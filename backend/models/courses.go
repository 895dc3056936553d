package models

import "time"

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"

	CourseLevelBasic        = "basic"
	CourseLevelIntermediate = "intermediate"
	CourseLevelAdvanced     = "advanced"

	ContentTypeVideo = "video"
	ContentTypeLink  = "link"
)

type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:120;not null" json:"name"`
}

// Course rows are hard-deleted; dependents reference them through real
// foreign keys, so a course can only go after everything pointing at it.
type Course struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Code       string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	ShortDesc  string    `json:"short_desc"`
	Price      float64   `gorm:"not null;default:0;check:price >= 0" json:"price"`
	Level      string    `gorm:"size:20;default:basic" json:"level"`
	Status     string    `gorm:"size:20;default:draft" json:"status"`
	CategoryID *uint     `json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	OwnerID    uint      `gorm:"not null;index" json:"owner_id"`
	Owner      *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CoverImage string    `json:"cover_image"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Lesson struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CourseID     uint      `gorm:"not null;index" json:"course_id"`
	Course       *Course   `json:"course,omitempty"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	ContentType  string    `gorm:"size:20;default:link" json:"content_type"` // video, link
	ContentPath  string    `json:"content_path"`
	DisplayOrder int       `gorm:"index" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClassSession is a scheduled meeting of a course; attendance is taken per session.
type ClassSession struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	CourseID uint      `gorm:"not null;index" json:"course_id"`
	Course   *Course   `json:"-"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
}

package models

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type Role struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	FullName     string    `json:"full_name"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	PasswordHash string    `gorm:"not null" json:"-"`
	RoleID       uint      `gorm:"not null" json:"role_id"`
	Role         *Role     `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

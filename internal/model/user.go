package model

import "time"

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name       string     `gorm:"size:100;not null" json:"name"`
	Email      string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role       UserRole   `gorm:"type:enum('student','instructor','admin');default:'student'" json:"role"`
	AvatarURL  string     `gorm:"size:255" json:"avatarUrl"`
	Headline   string     `gorm:"size:255" json:"headline"`
	Bio        string     `gorm:"type:text" json:"bio"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}

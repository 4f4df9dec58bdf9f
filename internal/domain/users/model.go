package users

import "time"

type User struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	Lastname string
	Email    string `gorm:"not null;uniqueIndex:idx_users_email"`
	Role     string `gorm:"type:varchar(20);not null;default:'tenant'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

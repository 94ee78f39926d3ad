package models

import "time"

// Student represents a learner that can take part in contests and assignments.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	RegNumber string    `gorm:"size:64;uniqueIndex;not null" json:"reg_number"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

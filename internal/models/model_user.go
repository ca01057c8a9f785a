package models

import "time"

// User is owned by the account subsystem; this service only reads it.
type User struct {
	ID        string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Email     string    `gorm:"column:email;type:varchar(255)" json:"email"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

package models

import "gorm.io/gorm"

// User carries only what request scoping needs. Registration, login and
// token rotation live in a separate auth service.
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
}

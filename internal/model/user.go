// Package model contains the gorm models shared across the application
package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `json:"name"`
	PasswordHash string `gorm:"not null" json:"-"`
	Verified     bool   `gorm:"default:false" json:"verified"`

	CreatedAt time.Time `json:"createdAt"`

	Otps []Otp `gorm:"foreignKey:UserID" json:"-"`
}

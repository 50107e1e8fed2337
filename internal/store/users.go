// Package store wraps the gorm queries used by the auth service so they
// can be exercised directly against an in-memory database in tests
package store

import (
	"cobi/auth-api/internal/model"

	"gorm.io/gorm"
)

type Users struct {
	DB *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{DB: db}
}

// Exists reports whether an account with the given email is already
// registered. Uniqueness itself is enforced by the unique index on the
// email column, this is only the cheap pre-check
func (u *Users) Exists(email string) (bool, error) {
	var found bool

	r := u.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		First(&found)
	if r.Error != nil && r.Error != gorm.ErrRecordNotFound {
		return false, r.Error
	}

	return found, nil
}

func (u *Users) Create(user *model.User) error {
	return u.DB.Create(user).Error
}

func (u *Users) FindByEmail(email string) (*model.User, error) {
	var user model.User

	if err := u.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (u *Users) FindByID(id string) (*model.User, error) {
	var user model.User

	if err := u.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// MarkVerified flips the verified flag. It only ever goes false -> true,
// nothing in the application turns it back off
func (u *Users) MarkVerified(id string) error {
	return u.DB.Model(&model.User{}).
		Where("id = ?", id).
		Update("verified", true).
		Error
}

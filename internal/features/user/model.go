package user

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/pkg/database"
	"github.com/skillforge/marketplace-server-go/pkg/pagination"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

type User struct {
	types.BaseModel
	FullName string     `gorm:"not null" json:"fullName"`
	Email    string     `gorm:"uniqueIndex;not null" json:"email"`
	Password string     `gorm:"not null" json:"-"`
	Role     types.Role `gorm:"not null;default:student" json:"role"`

	RefreshToken *string `json:"-"`
}

type CreateInput struct {
	FullName string
	Email    string
	Password string
	Role     types.Role
}

// Create hashes the password and inserts a new user.
func Create(db *gorm.DB, input CreateInput) (*User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	if input.FullName == "" {
		return nil, ErrNameRequired
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		FullName: input.FullName,
		Email:    input.Email,
		Password: string(hashed),
		Role:     input.Role,
	}

	if err := db.Create(u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return u, nil
}

// Get fetches a user by id.
func Get(db *gorm.DB, id uuid.UUID) (*User, error) {
	var u User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail fetches a user by email, case-insensitive.
func GetByEmail(db *gorm.DB, email string) (*User, error) {
	var u User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := db.First(&u, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns a page of users, optionally filtered by role.
func List(db *gorm.DB, role types.Role, params pagination.Params) ([]User, int64, error) {
	query := db.Model(&User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Delete removes a user. Enrollments and payment records are kept for
// bookkeeping.
func Delete(db *gorm.DB, actor types.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() && actor.ID != id {
		return ErrNotAllowed
	}

	result := db.Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

package auth

import (
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/user"
	"github.com/skillforge/marketplace-server-go/internal/utils/jwt"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     types.Role
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

type TokenConfig struct {
	JWTSecret          string
	JWTRefreshSecret   string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Register creates a new account. Self-registration is limited to the
// student and teacher roles; admins are provisioned out of band.
func Register(db *gorm.DB, input RegisterInput, cfg TokenConfig) (*AuthResponse, error) {
	if input.FullName == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	if !emailRegex.MatchString(input.Email) {
		return nil, ErrInvalidEmail
	}

	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}

	if input.Role == "" {
		input.Role = types.RoleStudent
	}
	if input.Role != types.RoleStudent && input.Role != types.RoleTeacher {
		return nil, ErrInvalidRole
	}

	newUser, err := user.Create(db, user.CreateInput{
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		return nil, err
	}

	return issueTokens(db, newUser, cfg)
}

// Login authenticates a user and returns fresh tokens.
func Login(db *gorm.DB, input LoginInput, cfg TokenConfig) (*AuthResponse, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	usr, err := user.GetByEmail(db, input.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !usr.CheckPassword(input.Password) {
		return nil, ErrInvalidCredentials
	}

	return issueTokens(db, usr, cfg)
}

// Refresh validates a refresh token and rotates the token pair.
func Refresh(db *gorm.DB, refreshToken string, cfg TokenConfig) (*AuthResponse, error) {
	claims, err := jwt.VerifyToken(refreshToken, cfg.JWTRefreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	usr, err := user.Get(db, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if usr.RefreshToken == nil || *usr.RefreshToken != refreshToken {
		return nil, ErrInvalidToken
	}

	return issueTokens(db, usr, cfg)
}

// Logout clears the stored refresh token.
func Logout(db *gorm.DB, actor types.Actor) error {
	return db.Model(&user.User{}).
		Where("id = ?", actor.ID).
		Update("refresh_token", nil).Error
}

func issueTokens(db *gorm.DB, usr *user.User, cfg TokenConfig) (*AuthResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(usr.ID, cfg.JWTSecret, cfg.AccessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(usr.ID, cfg.JWTRefreshSecret, cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	usr.RefreshToken = &refreshToken
	if err := db.Model(usr).Update("refresh_token", refreshToken).Error; err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         usr,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

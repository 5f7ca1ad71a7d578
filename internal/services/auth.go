package services

import (
	"errors"

	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/internal/utils"
	"gorm.io/gorm"
)

// AuthService validates credentials. There are no sessions or tokens; login
// answers "are these credentials valid" and nothing more.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

// Login checks the email/password pair. The failure message does not reveal
// which half was wrong.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	err := s.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err != nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
		return &LoginResponse{
			Success: false,
			Message: "Invalid email or password",
		}, nil
	}

	return &LoginResponse{
		Success: true,
		User:    &user,
	}, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"parkit/internal/db"
	"parkit/internal/entities"
	apperrors "parkit/internal/errors"
	"parkit/internal/repository"
	"parkit/internal/utils"
)

// AuthService issues bearer tokens for users and staff. Password hashes
// use bcrypt; tokens are HS256 with the subject id and role.
type AuthService struct {
	store    repository.Store
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(store repository.Store, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{store: store, secret: []byte(secret), tokenTTL: tokenTTL}
}

func (s *AuthService) RegisterUser(ctx context.Context, req *entities.RegisterRequest) (*entities.AuthResponse, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" || req.PlateNumber == "" {
		return nil, apperrors.NewHTTPError(400, "name, email, password and plate_number are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &db.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		PlateNumber:  utils.NormalizePlate(req.PlateNumber),
		VehicleModel: req.VehicleModel,
		VehicleColor: req.VehicleColor,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user.ID, user.Email, "user")
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{Token: token, User: user, Role: "user"}, nil
}

func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*entities.AuthResponse, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID, user.Email, "user")
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{Token: token, User: user, Role: "user"}, nil
}

// LoginStaff authenticates an admin or security account.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*entities.AuthResponse, error) {
	staff, err := s.store.FindStaffByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(staff.ID, staff.Email, staff.Role)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{Token: token, Role: staff.Role}, nil
}

// CreateStaff provisions an admin or security account.
func (s *AuthService) CreateStaff(ctx context.Context, name, email, password, role string) (*db.StaffAccount, error) {
	if role != db.RoleAdmin && role != db.RoleSecurity {
		return nil, apperrors.NewHTTPError(400, "role must be admin or security")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	staff := &db.StaffAccount{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := s.store.CreateStaff(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *AuthService) issueToken(id int64, email, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", id),
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

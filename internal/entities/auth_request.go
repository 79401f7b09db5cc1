package entities

import "parkit/internal/db"

type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	PlateNumber  string `json:"plate_number"`
	VehicleModel string `json:"vehicle_model"`
	VehicleColor string `json:"vehicle_color,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  *db.User `json:"user,omitempty"`
	Role  string   `json:"role"`
}

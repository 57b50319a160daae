package service

import (
	"time"

	"aklny/internal/model"

	"github.com/google/uuid"
)

// UserResponse is the public view of a user. Password hashes, provider ids and
// one-time token fields never leave the service layer.
type UserResponse struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	PhoneNumber       string    `json:"phone_number"`
	Role              string    `json:"role"`
	IsVerified        bool      `json:"is_verified"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	HasPassword       bool      `json:"has_password"`
	GoogleLinked      bool      `json:"google_linked"`
	RestaurantName    string    `json:"restaurant_name,omitempty"`
	RestaurantAddress string    `json:"restaurant_address,omitempty"`
	CuisineType       string    `json:"cuisine_type,omitempty"`
	VehicleType       string    `json:"vehicle_type,omitempty"`
	LicensePlate      string    `json:"license_plate,omitempty"`
	CreatedAt         string    `json:"created_at"`
	UpdatedAt         string    `json:"updated_at"`
}

func mapUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		PhoneNumber:       u.PhoneNumber,
		Role:              u.Role,
		IsVerified:        u.IsVerified,
		ProfilePictureURL: u.ProfilePictureURL,
		HasPassword:       u.HasPassword(),
		GoogleLinked:      u.HasGoogle(),
		RestaurantName:    u.RestaurantName,
		RestaurantAddress: u.RestaurantAddress,
		CuisineType:       u.CuisineType,
		VehicleType:       u.VehicleType,
		LicensePlate:      u.LicensePlate,
		CreatedAt:         u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         u.UpdatedAt.Format(time.RFC3339),
	}
}

// AuthResult is returned by every operation that opens a session. The refresh
// token travels in an HTTP-only cookie, so it is not serialized.
type AuthResult struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	RefreshToken string        `json:"-"`
	User         *UserResponse `json:"user"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

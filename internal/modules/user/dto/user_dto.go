package dto

import "campusshare.app/api/internal/entity"

type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	FirstName  string `json:"first_name" binding:"required,max=50"`
	LastName   string `json:"last_name" binding:"required,max=50"`
	University string `json:"university" binding:"required,max=100"`
	Major      string `json:"major" binding:"max=100"`
	Year       int    `json:"year" binding:"omitempty,min=1,max=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *entity.User `json:"user"`
}

// UpdateProfileRequest carries the mutable profile fields. Identifier, email
// and credential are not part of the payload and can never be changed here.
type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name" binding:"omitempty,max=50"`
	LastName     *string `json:"last_name" binding:"omitempty,max=50"`
	University   *string `json:"university" binding:"omitempty,max=100"`
	Major        *string `json:"major" binding:"omitempty,max=100"`
	Year         *int    `json:"year" binding:"omitempty,min=1,max=6"`
	ProfileImage *string `json:"profile_image" binding:"omitempty,url"`
}

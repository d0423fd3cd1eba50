package dto

import "github.com/noah-isme/afterschool-api/internal/models"

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=STUDENT TEACHER ADMIN"`
}

// VerifyCodeResponse answers the verify step of signup.
type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

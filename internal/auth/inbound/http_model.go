package inbound

import (
	"net/http"
	"strconv"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
)

type RegisterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

func (RegisterResponse) Message() string {
	return "User registered successfully"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

func (LoginResponse) Message() string {
	return "OTP sent to your email"
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (VerifyOTPResponse) Message() string {
	return "Login successful"
}

type ProfileResponse struct {
	User UserResponse `json:"user"`
}

func (ProfileResponse) Message() string {
	return "Profile retrieved successfully"
}

type DeleteAccountResponse struct{}

func (DeleteAccountResponse) Message() string {
	return "Account deleted successfully"
}

type UserResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Company      string `json:"company"`
	Age          int    `json:"age"`
	DateOfBirth  string `json:"date_of_birth"`
	ProfileImage string `json:"profile_image"`
}

func newUserResponse(u usecase.UserSummary) UserResponse {
	return UserResponse{
		ID:           strconv.FormatInt(u.ID, 10),
		Name:         u.Name,
		Email:        u.Email,
		Company:      u.Company,
		Age:          u.Age,
		DateOfBirth:  u.DateOfBirth.Format(entity.DateLayout),
		ProfileImage: u.ProfileImageURL,
	}
}

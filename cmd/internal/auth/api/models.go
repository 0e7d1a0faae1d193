package authapi

import "time"

type registerRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profile_image"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleSignInRequest struct {
	Credential string `json:"credential"`
}

type userResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	RefreshToken    string    `json:"refresh_token"`
}

type registerResponse struct {
	User   userResponse  `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

type loginResponse struct {
	Tokens tokenResponse `json:"tokens"`
}

type logoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

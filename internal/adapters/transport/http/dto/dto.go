package dto

type RegisterDTO struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	FullName string `json:"fullName" validate:"required,fullname"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type ProfileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

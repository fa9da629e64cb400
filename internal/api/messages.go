package api

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is the success payload of Register, SignIn and
// RefreshToken.
type SessionResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
	Role             string `json:"role"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type SignOutResponse struct {
	Success bool `json:"success"`
}

type SignOutAllRequest struct{}

type SignOutAllResponse struct {
	Revoked int64 `json:"revoked"`
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	Role            string `json:"role"`
	IsAdministrator bool   `json:"isAdministrator"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

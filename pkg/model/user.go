package model

// Identity is the signed-in user as reported by the backend's /me endpoint.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

package models

// User is a registered account. The password is kept only as a bcrypt hash.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

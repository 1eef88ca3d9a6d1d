package auth

// Identity is the authenticated caller bound to a request
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IsOwner reports whether the identity is the given user
func (i *Identity) IsOwner(userID int64) bool {
	return i != nil && i.UserID == userID
}

package auth

import (
	"time"
)

// Claims represents authentication token claims
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Raw       map[string]interface{}
}

// Validator validates bearer tokens presented on agent requests
type Validator interface {
	Validate(token string) (*Claims, error)
}

package static

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/osvaldoandrade/tldw/pkg/auth"
)

type validator struct {
	token string
}

// NewValidator builds a validator that accepts a single pre-shared bearer token.
func NewValidator(cfg auth.Config) (auth.Validator, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("static auth: token is required")
	}
	return &validator{token: token}, nil
}

func (v *validator) Validate(token string) (*auth.Claims, error) {
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(v.token)) != 1 {
		return nil, errors.New("invalid token")
	}
	return &auth.Claims{
		Subject: "static",
		Raw:     map[string]interface{}{},
	}, nil
}

func init() {
	auth.RegisterProvider("static", NewValidator)
}

package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/osvaldoandrade/tldw/pkg/auth"
)

// Validator validates HS256 JWT tokens signed with a shared secret
type Validator struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

// NewValidator creates a new HS256 validator
func NewValidator(cfg auth.Config) (auth.Validator, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, errors.New("jwt auth: secret is required")
	}

	return &Validator{
		secret:    []byte(secret),
		issuer:    strings.TrimSpace(cfg.JWTIssuer),
		clockSkew: cfg.ClockSkew,
	}, nil
}

// Validate validates a JWT token
func (v *Validator) Validate(tokenString string) (*auth.Claims, error) {
	token, err := gojwt.Parse(tokenString, func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, gojwt.WithLeeway(v.clockSkew), gojwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	// Validate issuer when one is configured
	if v.issuer != "" {
		iss, _ := claims["iss"].(string)
		if iss != v.issuer {
			return nil, fmt.Errorf("invalid issuer: %s", iss)
		}
	}

	result := &auth.Claims{
		Subject: getStringClaim(claims, "sub"),
		Issuer:  getStringClaim(claims, "iss"),
		Raw:     map[string]interface{}(claims),
	}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if iat, ok := claims["iat"].(float64); ok {
		result.IssuedAt = time.Unix(int64(iat), 0)
	}

	return result, nil
}

func getStringClaim(claims gojwt.MapClaims, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func init() {
	auth.RegisterProvider("jwt", NewValidator)
}

package auth

import (
	"fmt"
	"sync"
	"time"
)

// Config contains validator configuration shared by all auth modes
type Config struct {
	Token     string
	JWTSecret string
	JWTIssuer string
	ClockSkew time.Duration
}

// ValidatorFactory creates a validator from configuration
type ValidatorFactory func(cfg Config) (Validator, error)

var (
	registry = make(map[string]ValidatorFactory)
	mu       sync.RWMutex
)

// RegisterProvider registers a validator factory for an auth mode
func RegisterProvider(mode string, factory ValidatorFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[mode] = factory
}

// NewValidator creates a validator for the given auth mode
func NewValidator(mode string, cfg Config) (Validator, error) {
	mu.RLock()
	factory, ok := registry[mode]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown auth mode: %s", mode)
	}

	return factory(cfg)
}

// ListProviders returns registered auth modes
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	return providers
}

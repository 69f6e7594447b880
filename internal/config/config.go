// Package config loads the service's environment-derived configuration and
// holds the difficulty-tunable simulation constants.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"cosmos-backend/internal/universe"
)

var errWildcardOrigin = errors.New("wildcard (*) CORS origin is not allowed for security; specify exact origins")

// Config is the service's environment-derived configuration: §6.3.
type Config struct {
	Port               string
	MongoURI           string
	RedisAddr          string
	NATSURL            string
	JWTSecret          string
	CORSAllowedOrigins []string
	Verbose            bool // NODE_ENV-equivalent flag controlling detailed error exposure
	RequestTimeout     time.Duration
}

// Load reads configuration from the environment, applying the same
// localhost-friendly defaults the rest of the service's entrypoints use.
func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017/cosmos"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		NATSURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: parseOrigins(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		Verbose:            getEnv("APP_ENV", "production") != "production",
		RequestTimeout:     30 * time.Second,
	}
}

// ValidateCORSOrigins rejects a wildcard CORS origin outright: paired with
// AllowCredentials, "*" lets any site read authenticated responses.
func ValidateCORSOrigins(origins []string) error {
	for _, o := range origins {
		if o == "*" {
			return errWildcardOrigin
		}
	}
	return nil
}

func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ConstantsStore is a mutex-guarded, hot-reloadable map of per-difficulty
// default physical constants. Operators may override a tier's constants
// without restarting the service by calling SetOverride.
type ConstantsStore struct {
	mu        sync.RWMutex
	overrides map[universe.Difficulty]universe.Constants
}

// NewConstantsStore builds an empty ConstantsStore; Get falls back to
// universe.DefaultConstants() for any tier without an override.
func NewConstantsStore() *ConstantsStore {
	return &ConstantsStore{overrides: make(map[universe.Difficulty]universe.Constants)}
}

// Get returns the constants a newly-created universe of difficulty d should
// use.
func (s *ConstantsStore) Get(d universe.Difficulty) universe.Constants {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.overrides[d]; ok {
		return c
	}
	return universe.DefaultConstants()
}

// SetOverride installs a replacement Constants value for difficulty d.
func (s *ConstantsStore) SetOverride(d universe.Difficulty, c universe.Constants) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[d] = c
}

// LoadOverridesJSON sets the overrides for every tier named in a JSON object
// keyed by difficulty name, matching the shape an operator tool would PUT.
// Tiers absent from the object keep their current overrides.
func (s *ConstantsStore) LoadOverridesJSON(data []byte) error {
	var parsed map[universe.Difficulty]universe.Constants
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for d, c := range parsed {
		s.overrides[d] = c
	}
	return nil
}

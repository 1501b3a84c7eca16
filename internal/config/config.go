package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port             int
	GinMode          string
	UserStorePath    string
	MaxLoginAttempts int
	LockoutMinutes   int
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:             3456,
		GinMode:          "release",
		UserStorePath:    "data/users.json",
		MaxLoginAttempts: 5,
		LockoutMinutes:   15,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	if raw := env.Getenv("USER_STORE_PATH"); raw != "" {
		cfg.UserStorePath = raw
	}

	if raw := env.Getenv("MAX_LOGIN_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_LOGIN_ATTEMPTS")
		}
		cfg.MaxLoginAttempts = n
	}

	if raw := env.Getenv("LOCKOUT_MINUTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid LOCKOUT_MINUTES")
		}
		cfg.LockoutMinutes = n
	}

	return cfg, nil
}

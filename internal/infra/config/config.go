package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// JWTSecret is the symmetric signing key. Loaded once here and passed
	// explicitly; it must never appear in logs.
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	Issuer          string
	Audience        string

	PasswordPepper string

	// RefreshRotation controls whether Refresh revokes the presented refresh
	// token and issues a new one, or reuses it and mints only a new access
	// token.
	RefreshRotation bool

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
	CookieDomain     string

	// ResetURLBase is the frontend page the reset link points at; the token
	// is appended as a query parameter.
	ResetURLBase string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	keys := []string{
		"DATABASE_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "RESET_TOKEN_TTL",
		"JWT_ISSUER", "JWT_AUDIENCE", "PASSWORD_PEPPER", "REFRESH_ROTATION",
		"HTTP_ADDRESS", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS", "COOKIE_DOMAIN",
		"RESET_URL_BASE",
		"SMTP_HOST", "SMTP_PORT", "SMTP_FROM", "SMTP_USERNAME", "SMTP_PASSWORD",
	}
	for _, k := range keys {
		if err := viper.BindEnv(k); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("ACCESS_TOKEN_TTL", "30m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("RESET_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_ROTATION", true)
	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("SMTP_PORT", 587)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	required := []string{
		"DATABASE_URL", "REDIS_ADDRESS", "JWT_SECRET",
		"JWT_ISSUER", "JWT_AUDIENCE", "SMTP_HOST", "SMTP_FROM",
	}
	for _, k := range required {
		if viper.GetString(k) == "" {
			return nil, fmt.Errorf("%s is not set", k)
		}
	}

	return &Config{
		DatabaseURL:      viper.GetString("DATABASE_URL"),
		RedisAddress:     viper.GetString("REDIS_ADDRESS"),
		RedisPassword:    viper.GetString("REDIS_PASSWORD"),
		RedisDB:          viper.GetInt("REDIS_DB"),
		JWTSecret:        viper.GetString("JWT_SECRET"),
		AccessTokenTTL:   viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  viper.GetDuration("REFRESH_TOKEN_TTL"),
		ResetTokenTTL:    viper.GetDuration("RESET_TOKEN_TTL"),
		Issuer:           viper.GetString("JWT_ISSUER"),
		Audience:         viper.GetString("JWT_AUDIENCE"),
		PasswordPepper:   viper.GetString("PASSWORD_PEPPER"),
		RefreshRotation:  viper.GetBool("REFRESH_ROTATION"),
		HTTPAddress:      viper.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: viper.GetBool("ALLOW_CREDENTIALS"),
		CookieDomain:     viper.GetString("COOKIE_DOMAIN"),
		ResetURLBase:     viper.GetString("RESET_URL_BASE"),
		SMTPHost:         viper.GetString("SMTP_HOST"),
		SMTPPort:         viper.GetInt("SMTP_PORT"),
		SMTPFrom:         viper.GetString("SMTP_FROM"),
		SMTPUsername:     viper.GetString("SMTP_USERNAME"),
		SMTPPassword:     viper.GetString("SMTP_PASSWORD"),
	}, nil
}

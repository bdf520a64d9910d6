// Package config loads the server configuration from environment variables.
//
// Every required variable is checked at start-up and all problems are
// reported together, so a misconfigured deployment fails before serving
// a single request.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/inference"
)

const (
	MailProviderSMTP     = "smtp"
	MailProviderSendGrid = "sendgrid"
)

type Config struct {
	Port      int
	DBPath    string
	LogLevel  slog.Level
	GitHub    GitHubConfig
	Inference InferenceConfig
	Mail      MailConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

type GitHubConfig struct {
	ClientID          string
	ClientSecret      string
	AppID             string
	AppPrivateKeyPath string
	APIURL            string // REST API root
	OAuthURL          string // host serving /login/oauth/*
}

type InferenceConfig struct {
	BaseURL      string
	APIKey       string
	Organization string
	Model        string
	MaxTokens    int
	SystemPrompt string
}

type MailConfig struct {
	Provider         string
	Host             string
	Port             int
	Username         string
	Password         string
	UseSSL           bool
	UseTLS           bool
	From             string
	SendGridAPIKey   string
	ContactRecipient string
}

type SessionConfig struct {
	JWTSecret  string
	TTL        time.Duration
	SealTokens bool
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load builds a Config from getenv (os.Getenv in production).
func Load(getenv func(string) string) (*Config, error) {
	e := &env{getenv: getenv}

	cfg := &Config{
		Port:   e.Int("PORT", 8080),
		DBPath: e.String("DB_PATH", "data/issue-is.db"),
		GitHub: GitHubConfig{
			ClientID:          e.required("GITHUB_CLIENT_ID"),
			ClientSecret:      e.required("GITHUB_CLIENT_SECRET"),
			AppID:             e.required("GITHUB_APP_ID"),
			AppPrivateKeyPath: e.required("GITHUB_APP_PRIVATE_KEY_PATH"),
			APIURL:            e.String("GITHUB_API_URL", "https://api.github.com"),
			OAuthURL:          e.String("GITHUB_OAUTH_URL", "https://github.com"),
		},
		Inference: InferenceConfig{
			BaseURL:      e.required("INFERENCE_BASE_URL"),
			APIKey:       e.required("INFERENCE_API_KEY"),
			Organization: e.String("INFERENCE_ORGANIZATION", ""),
			Model:        e.required("INFERENCE_MODEL"),
			MaxTokens:    e.Int("INFERENCE_MAX_TOKENS", inference.DefaultMaxTokens),
		},
		Session: SessionConfig{
			JWTSecret:  e.required("JWT_SECRET"),
			TTL:        e.Duration("SESSION_TTL", 24*time.Hour),
			SealTokens: e.Bool("SEAL_TOKENS", true),
		},
		RateLimit: RateLimitConfig{
			RPS:   e.Float("RATE_LIMIT_RPS", 5),
			Burst: e.Int("RATE_LIMIT_BURST", 10),
		},
	}

	level, err := parseLevel(e.String("LOG_LEVEL", "info"))
	e.check(err == nil, "LOG_LEVEL: %v", err)
	cfg.LogLevel = level

	cfg.Mail = loadMail(e)

	e.check(cfg.Port > 0 && cfg.Port < 65536, "PORT=%d is out of range", cfg.Port)
	e.check(cfg.Session.JWTSecret == "" || len(cfg.Session.JWTSecret) >= 16, "JWT_SECRET must be at least 16 characters")
	e.check(cfg.Session.TTL > 0, "SESSION_TTL must be positive")
	e.check(cfg.Inference.MaxTokens > 0, "INFERENCE_MAX_TOKENS must be positive")
	e.check(cfg.RateLimit.RPS > 0, "RATE_LIMIT_RPS must be positive")
	e.check(cfg.RateLimit.Burst > 0, "RATE_LIMIT_BURST must be positive")

	if path := e.String("PROMPT_FILE", ""); path != "" {
		prompt, err := LoadPrompt(path)
		e.check(err == nil, "PROMPT_FILE: %v", err)
		cfg.Inference.SystemPrompt = prompt
	}
	if cfg.Inference.SystemPrompt == "" {
		cfg.Inference.SystemPrompt = inference.DefaultSystemPrompt
	}

	var errs []error
	if len(e.missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(e.missing, ", ")))
	}
	for _, msg := range e.invalid {
		errs = append(errs, errors.New(msg))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func loadMail(e *env) MailConfig {
	m := MailConfig{
		Provider: strings.ToLower(e.String("MAIL_PROVIDER", MailProviderSMTP)),
		Host:     e.String("MAIL_HOST", "smtp.gmail.com"),
		Port:     e.Int("MAIL_PORT", 465),
		UseSSL:   e.Bool("MAIL_USE_SSL", true),
		UseTLS:   e.Bool("MAIL_USE_TLS", false),
	}

	switch m.Provider {
	case MailProviderSMTP:
		m.Username = e.required("MAIL_USERNAME")
		m.Password = e.required("MAIL_PASSWORD")
		m.From = e.String("MAIL_FROM", m.Username)
		m.ContactRecipient = e.String("CONTACT_RECIPIENT", m.Username)
	case MailProviderSendGrid:
		m.SendGridAPIKey = e.required("SENDGRID_API_KEY")
		m.From = e.required("MAIL_FROM")
		m.ContactRecipient = e.required("CONTACT_RECIPIENT")
	default:
		e.check(false, "MAIL_PROVIDER=%q must be %q or %q", m.Provider, MailProviderSMTP, MailProviderSendGrid)
	}
	return m
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// promptFile is the YAML layout of PROMPT_FILE.
type promptFile struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadPrompt reads the system prompt template from a YAML file.
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var f promptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	prompt := strings.TrimSpace(f.SystemPrompt)
	if prompt == "" {
		return "", fmt.Errorf("%s: system_prompt is empty", path)
	}
	return prompt, nil
}

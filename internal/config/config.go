package config

import (
	"time"

	pkgconfig "lookout/pkg/config"
	"lookout/pkg/email"
	"lookout/pkg/llm"
)

// Config holds service configuration loaded from environment variables
type Config struct {
	Port              string
	ArticleServiceURL string
	ProfilesPath      string

	FetchWindowHours     int
	MaxSourceConcurrency int
	LLMTimeout           time.Duration
	MaxDeepDives         int

	// ServerWriteTimeout must cover a full briefing run: /generate holds the
	// response open across every sequential LLM call of every user.
	ServerWriteTimeout time.Duration

	SendEmail bool

	LLM  llm.Config
	SMTP email.Config
}

// Load reads service configuration from the environment
func Load() Config {
	return Config{
		Port:              pkgconfig.GetEnv("PORT", "18032"),
		ArticleServiceURL: pkgconfig.GetEnv("ARTICLE_SERVICE_URL", "http://localhost:18031"),
		ProfilesPath:      pkgconfig.GetEnv("PROFILES_PATH", "users.jsonl"),

		FetchWindowHours:     pkgconfig.GetEnvInt("FETCH_WINDOW_HOURS", 48),
		MaxSourceConcurrency: pkgconfig.GetEnvInt("MAX_SOURCE_CONCURRENCY", 4),
		LLMTimeout:           pkgconfig.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
		MaxDeepDives:         pkgconfig.GetEnvInt("MAX_DEEP_DIVES", 3),

		ServerWriteTimeout: pkgconfig.GetEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Minute),

		SendEmail: pkgconfig.GetEnvBool("SEND_EMAIL", true),

		LLM: llm.LoadConfig(),
		SMTP: email.Config{
			Host:     pkgconfig.GetEnv("SMTP_HOST", ""),
			Port:     pkgconfig.GetEnv("SMTP_PORT", "587"),
			User:     pkgconfig.GetEnv("SMTP_USER", ""),
			Password: pkgconfig.GetEnv("SMTP_PASS", ""),
			From:     pkgconfig.GetEnv("SMTP_FROM", "briefings@localhost"),
			FromName: pkgconfig.GetEnv("SMTP_FROM_NAME", "Lookout Briefings"),
		},
	}
}

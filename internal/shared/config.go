package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	LogLevel    string
	SecretKey   string // retained for signing; nothing in the proxy path reads it
	AllowOrigin []string

	SecretSource     string // file|ssm|vault
	CredentialsFile  string
	Account          string
	SSMAccountParam  string
	SSMKeyParam      string
	VaultMount       string
	VaultSecretPath  string
	PlaystoreBaseURL string
	TokenURL         string

	UploadsEnabled  bool
	UpstreamTimeout time.Duration
	UpstreamRPS     int

	RedisAddr string
	RedisDB   int
	RedisPass string
}

func Load() Config {
	appEnv := env("APP_ENV", "prod")
	if appEnv != "prod" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("could not load .env")
		}
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:           appEnv,
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ""),
		LogLevel:         env("LOG_LEVEL", "info"),
		SecretKey:        env("SECRET_KEY", ""),
		AllowOrigin:      splitList(env("ALLOW_ORIGINS", "")),
		SecretSource:     strings.ToLower(env("SECRET_SOURCE", "file")),
		CredentialsFile:  env("PLAYSTORE_CREDENTIALS_FILE", ""),
		Account:          env("PLAYSTORE_ACCOUNT", ""),
		SSMAccountParam:  env("SSM_ACCOUNT_PARAM", "SumoPlaystoreReviewsAccount"),
		SSMKeyParam:      env("SSM_KEY_PARAM", "SumoPlaystoreReviewsKey"),
		VaultMount:       env("VAULT_MOUNT", "secret"),
		VaultSecretPath:  env("VAULT_SECRET_PATH", "playstore"),
		PlaystoreBaseURL: env("PLAYSTORE_BASE_URL", "https://androidpublisher.googleapis.com/androidpublisher/v3"),
		TokenURL:         env("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		UploadsEnabled:   ParseFlag(os.Getenv("UPLOADS_ENABLED")),
		UpstreamTimeout:  time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 15)) * time.Second,
		UpstreamRPS:      atoi("UPSTREAM_RPS", 10),
		RedisAddr:        env("REDIS_ADDR", ""),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),
	}
	if c.SecretSource == "file" && c.CredentialsFile == "" {
		log.Warn().Msg("PLAYSTORE_CREDENTIALS_FILE is empty")
	}
	if c.SecretKey == "" {
		log.Debug().Msg("SECRET_KEY is empty")
	}
	return c
}

// ParseFlag reads a boolean switch: "true", "1", "yes" and "on" (any case) enable it,
// everything else, including the empty string, disables it.
func ParseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseDriver      string // DB_DRIVER: postgres (default) or sqlite
	DatabaseURL         string
	RedisURL            string
	LockBackend         string // LOCK_BACKEND: redis (default when REDIS_URL is set) or database
	RecalcCron          string // RECALC_CRON, empty disables scheduled recalculation
	PasscodeHash        string // bcrypt hash granting the admin role
	ViewerPasscodeHash  string // bcrypt hash granting read-only access
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for defect alerts (Brevo)
	MailFrom            string
	AlertEmail          string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	driver := strings.ToLower(strings.TrimSpace(viper.GetString("DB_DRIVER")))
	if driver == "" {
		driver = "postgres"
	}
	redisURL := viper.GetString("REDIS_URL")
	lockBackend := strings.ToLower(strings.TrimSpace(viper.GetString("LOCK_BACKEND")))
	if lockBackend == "" {
		lockBackend = "database"
		if redisURL != "" {
			lockBackend = "redis"
		}
	}
	level := viper.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return &Config{
		Env:                 env,
		Port:                port,
		LogLevel:            level,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseDriver:      driver,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		LockBackend:         lockBackend,
		RecalcCron:          strings.TrimSpace(viper.GetString("RECALC_CRON")),
		PasscodeHash:        viper.GetString("PASSCODE_HASH"),
		ViewerPasscodeHash:  viper.GetString("VIEWER_PASSCODE_HASH"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            mailFrom(viper.GetString("MAIL_FROM")),
		AlertEmail:          strings.TrimSpace(viper.GetString("ALERT_EMAIL")),
	}, nil
}

func mailFrom(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "noreply@clientbook.local"
	}
	return s
}

package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app-wide configuration. It is hydrated once at import time
// from defaults, an optional per-env .env file and the environment.
var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Port                      int
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		URI  string
		Name string
	}

	UploadsConfig struct {
		Dir               string
		MaxImageSize      int64 // bytes
		MaxImageCount     int
		MaxAttachmentSize int64 // bytes
	}

	PushConfig struct {
		VAPIDPublicKey  string
		VAPIDPrivateKey string
		VAPIDSubject    string
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string

		AppName          string
		SecretKey        []byte
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		WorkDir          string

		SendgridApiKey string
		RollbarToken   string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
		Push     PushConfig
	}
)

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "BHSS Websystem")
	v.SetDefault("secretKey", "x#2b!7y)d3kq+8mhz&$wu5(p0o@c4vng1j6r9te*afsl-i%_=~")
	v.SetDefault("build", "dev")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("databaseURI", "mongodb://localhost:27017")
	v.SetDefault("databaseName", "bhss")
	v.SetDefault("uploadDir", filepath.Join(Getwd(), "uploads"))
	v.SetDefault("maxImageSize", 2<<20)
	v.SetDefault("maxImageCount", 15)
	v.SetDefault("maxAttachmentSize", 10<<20)
	v.SetDefault("vapidSubject", "mailto:admin@example.com")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		Env:      v.GetString("env"),
		Build:    v.GetString("build"),

		AppName:          v.GetString("appName"),
		SecretKey:        []byte(v.GetString("secretKey")),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		WorkDir:          Getwd(),

		SendgridApiKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetInt("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			URI:  v.GetString("databaseURI"),
			Name: v.GetString("databaseName"),
		},
		Uploads: UploadsConfig{
			Dir:               strings.TrimSpace(v.GetString("uploadDir")),
			MaxImageSize:      v.GetInt64("maxImageSize"),
			MaxImageCount:     v.GetInt("maxImageCount"),
			MaxAttachmentSize: v.GetInt64("maxAttachmentSize"),
		},
		Push: PushConfig{
			VAPIDPublicKey:  v.GetString("vapidPublicKey"),
			VAPIDPrivateKey: v.GetString("vapidPrivateKey"),
			VAPIDSubject:    v.GetString("vapidSubject"),
		},
	}
}

// Getwd returns the current working directory; the process is expected to be
// started from the project root.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.Getwd: %v", err)
	}
	return wd
}

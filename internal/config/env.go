package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Every key can be given either with the MESSMATE_ prefix or bare, so the
// .env file written by setup-notifications works unchanged.
const namespace = "MESSMATE"

type BaseEnv struct {
	Env         string `envconfig:"NODE_ENV" default:"local"`
	HTTPHost    string `envconfig:"HTTP_HOST" default:""`
	HTTPPort    string `envconfig:"PORT" default:"3000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`
	FrontendURL string `envconfig:"FRONTEND_URL"`
	EnvFile     string `envconfig:"ENV_FILE" default:".env"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".messmate/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"messmate/"`
	S3Region   string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	// MongoDB settings (used when Type == "mongo")
	MongoURI      string `envconfig:"MONGODB_URI"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"mess_db"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_MAILTO"`
	VAPIDTTL        int    `envconfig:"VAPID_TTL" default:"86400"`
}

type Env struct {
	BaseEnv
	StorageEnv
	VAPIDEnv
}

// LoadEnv reads envFile into the process environment (without overriding
// variables that are already set) and then decodes the environment. A missing
// file is not an error.
func LoadEnv(envFile string) (*Env, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

// IsLocal reports whether logs should be written for a human reader.
func (e *BaseEnv) IsLocal() bool {
	return e.Env == "local" || e.Env == "development"
}

func (v VAPIDEnv) Configured() bool {
	return v.VAPIDPublicKey != "" && v.VAPIDPrivateKey != ""
}

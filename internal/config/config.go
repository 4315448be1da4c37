package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Lexicon    LexiconConfig    `mapstructure:"lexicon"`
	Completion CompletionConfig `mapstructure:"completion"`
	Media      MediaConfig      `mapstructure:"media"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type DictionaryConfig struct {
	// StaticTableFile points at the common-words JSON asset. A missing file
	// degrades to an empty table rather than a startup failure.
	StaticTableFile string `mapstructure:"static_table_file"`
	MemoCapacity    int    `mapstructure:"memo_capacity" validate:"gt=0"`
}

type LexiconConfig struct {
	Directory string `mapstructure:"directory"`
}

type CompletionConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=gemini openai"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	Gemini        GeminiConfig  `mapstructure:"gemini"`
	OpenAI        OpenAIConfig  `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type MediaConfig struct {
	S3Region        string        `mapstructure:"s3_region"`
	S3Bucket        string        `mapstructure:"s3_bucket"`
	S3BaseEndpoint  string        `mapstructure:"s3_base_endpoint"`
	S3AccessKey     string        `mapstructure:"s3_access_key"`
	S3SecretKey     string        `mapstructure:"s3_secret_key"`
	PresignValidity time.Duration `mapstructure:"presign_validity"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hoverlearn")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "hoverlearn")
	v.SetDefault("database.username", "user")
	v.SetDefault("dictionary.static_table_file", filepath.Join("assets", "common_words.json"))
	v.SetDefault("dictionary.memo_capacity", 1000)
	v.SetDefault("lexicon.directory", filepath.Join("assets", "lexicon"))
	v.SetDefault("completion.provider", "gemini")
	v.SetDefault("completion.timeout", 15*time.Second)
	v.SetDefault("completion.retry_attempts", 0)
	v.SetDefault("completion.gemini.model", "gemini-2.0-flash")
	v.SetDefault("completion.openai.model", "gpt-4o-mini")
	v.SetDefault("media.s3_region", "us-east-1")
	v.SetDefault("media.s3_bucket", "hoverlearn-media")
	v.SetDefault("media.presign_validity", 15*time.Minute)

	// Credentials come from the environment only, never from the config file.
	if err := v.BindEnv("completion.gemini.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("completion.openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("auth.secret", "AUTH_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind AUTH_SECRET environment variable: %w", err)
	}
	if err := v.BindEnv("media.s3_access_key", "S3_ACCESS_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind S3_ACCESS_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("media.s3_secret_key", "S3_SECRET_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind S3_SECRET_KEY environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

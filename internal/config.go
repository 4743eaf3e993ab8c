package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/vocanote/internal/auth"
	"github.com/starford/vocanote/internal/store"
	"github.com/starford/vocanote/internal/summarize"
	"github.com/starford/vocanote/internal/transcribe"
)

// Application modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config represents the application configuration.
type Config struct {
	App           ApplicationConfig   `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Uploads       UploadsConfig       `yaml:"uploads"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Summarization SummarizationConfig `yaml:"summarization"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Auth.Validate(c.App.Production()); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Uploads.Validate(); err != nil {
		return fmt.Errorf("uploads: %w", err)
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	if err := c.Summarization.Validate(); err != nil {
		return fmt.Errorf("summarization: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Mode     string     `yaml:"mode"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = ModeDevelopment
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(ModeDevelopment, ModeProduction)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Production reports whether the server runs in production mode.
func (c *ApplicationConfig) Production() bool {
	return c.Mode == ModeProduction
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.CORSOrigins, validation.Each(validation.Required)),
	)
}

// DatabaseConfig selects the SQL engine and its connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(store.DriverSQLite, store.DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
	)
}

// AuthConfig holds session token and password hashing settings.
//
// An empty Secret is tolerated in development mode only; the server then
// signs tokens with a random per-process secret.
type AuthConfig struct {
	Secret               string        `yaml:"secret"`
	TokenTTL             time.Duration `yaml:"token_ttl"`
	BcryptCost           int           `yaml:"bcrypt_cost"`
	ProtectTranscription bool          `yaml:"protect_transcription"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate(production bool) error {
	if c.TokenTTL == 0 {
		c.TokenTTL = auth.DefaultTTL
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Secret,
			validation.When(production, validation.Required, validation.Length(16, 0))),
		validation.Field(&c.TokenTTL, validation.Min(time.Minute)),
		validation.Field(&c.BcryptCost,
			validation.When(c.BcryptCost != 0, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost))),
	)
}

// UploadsConfig holds the staging directory for uploaded audio.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// TranscriptionConfig configures the speech-to-text provider.
type TranscriptionConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the transcription configuration.
func (c *TranscriptionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// SummarizationConfig configures the text generation backend.
type SummarizationConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the summarization configuration.
func (c *SummarizationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Mode:     ModeDevelopment,
			HTTP: HTTPConfig{
				Port:        5000,
				CORSOrigins: []string{"http://localhost:3000"},
			},
		},
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			DSN:    "./vocanote.db",
		},
		Auth: AuthConfig{
			TokenTTL:   auth.DefaultTTL,
			BcryptCost: bcrypt.DefaultCost,
		},
		Uploads: UploadsConfig{
			Dir: "./uploads",
		},
		Transcription: TranscriptionConfig{
			BaseURL:  transcribe.DefaultGroqBaseURL,
			Model:    transcribe.DefaultGroqModel,
			Language: "en",
			Timeout:  60 * time.Second,
		},
		Summarization: SummarizationConfig{
			BaseURL: summarize.DefaultGeminiBaseURL,
			Model:   summarize.DefaultGeminiModel,
			Timeout: 60 * time.Second,
		},
	}
}

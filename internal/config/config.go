package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AUTHUI_KRATOS_PUBLIC_URL.
const EnvPrefix = "AUTHUI"

// Environment of the server. Production forces secure cookies.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the full server configuration.
type Config struct {
	Environment Environment `mapstructure:"environment" validate:"required,oneof=development production"`

	Server  Server  `mapstructure:"server"`
	Kratos  Kratos  `mapstructure:"kratos"`
	Submit  Submit  `mapstructure:"submit"`
	Session Session `mapstructure:"session"`
	Theme   Theme   `mapstructure:"theme"`
	Log     Log     `mapstructure:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	// Listen is the address the server binds.
	//
	// Default: :4455
	Listen string `mapstructure:"listen" validate:"required"`
	// Brand is shown at the top of the navigation.
	Brand string `mapstructure:"brand"`
	// RPS limits the async submit API. 0 disables the limiter.
	//
	// Default: 10
	RPS          int           `mapstructure:"rps" validate:"gte=0"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Kratos configures the identity API client.
type Kratos struct {
	// PublicURL is where this server reaches the frontend API.
	//
	// Default: http://127.0.0.1:4433
	PublicURL string `mapstructure:"public_url" validate:"required,url"`
	// BrowserURL is the address browsers use for the same API, when it
	// differs from PublicURL.
	BrowserURL string        `mapstructure:"browser_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Submit selects how forms reach the identity API.
type Submit struct {
	// Mode is post (browser posts to the API) or async (page script posts
	// through this server).
	Mode string `mapstructure:"mode" validate:"required,oneof=post async"`
}

// Session configures the server-side session tracker.
type Session struct {
	Lifetime   time.Duration `mapstructure:"lifetime" validate:"required,gt=0"`
	CookieName string        `mapstructure:"cookie_name" validate:"required"`
	Secure     bool          `mapstructure:"secure"`
	// RedisURL switches the tracker from memory to Redis.
	RedisURL string `mapstructure:"redis_url" validate:"omitempty,url"`
}

// Theme selects the renderer theme.
type Theme struct {
	Name    string `mapstructure:"name" validate:"required"`
	Variant string `mapstructure:"variant"`
	// Manifest is an optional YAML theme manifest registered next to the
	// built-in daisy theme.
	Manifest string `mapstructure:"manifest"`
	// Preset is an optional JSON file patching node labels and messages.
	Preset string `mapstructure:"preset"`
}

// Log configures logrus.
type Log struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// Options locate configuration sources.
type Options struct {
	// File is an explicit config file. When empty, authui.{yaml,json,toml}
	// is looked up in the working directory and is optional.
	File string
	// EnvFile is a dotenv file loaded before reading the environment. A
	// missing file is ignored.
	EnvFile string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Defaults returns the configuration used when nothing overrides it.
func Defaults() map[string]any {
	return map[string]any{
		"environment":          string(Development),
		"server.listen":        ":4455",
		"server.brand":         "Welcome",
		"server.rps":           10,
		"server.read_timeout":  "10s",
		"server.write_timeout": "30s",
		"kratos.public_url":    "http://127.0.0.1:4433",
		"kratos.browser_url":   "",
		"kratos.timeout":       "10s",
		"submit.mode":          "post",
		"session.lifetime":     "60m",
		"session.cookie_name":  "authui_session",
		"session.secure":       false,
		"session.redis_url":    "",
		"theme.name":           "daisy",
		"theme.variant":        "",
		"theme.manifest":       "",
		"theme.preset":         "",
		"log.level":            "info",
		"log.format":           "text",
	}
}

// Load reads defaults, the config file, the dotenv file and the environment,
// in increasing priority, and validates the result.
func Load(opts Options) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("authui")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalise()
	if err := Check(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalise() {
	c.Environment = Environment(strings.ToLower(string(c.Environment)))
	c.Submit.Mode = strings.ToLower(strings.TrimSpace(c.Submit.Mode))
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Kratos.PublicURL = strings.TrimRight(c.Kratos.PublicURL, "/")
	c.Kratos.BrowserURL = strings.TrimRight(c.Kratos.BrowserURL, "/")
	if c.Environment == Production {
		c.Session.Secure = true
	}
}

// Check validates cfg and reports the first invalid field.
func Check(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: validate: %w", err)
	}
	fe := fieldErrs[0]
	return fmt.Errorf("config: [%s] invalid %s provided: %v", fe.StructNamespace(), strings.ToLower(fe.Field()), fe.Value())
}

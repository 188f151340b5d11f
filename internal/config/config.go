package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetDataFolder() string
}

type mainConfig struct {
	EnvVars
	Client
	Store
}

// New returns a configuration backed by environment variables and defaults only.
func New() Config {
	return newConfig(&FileConfig{})
}

// Load reads an optional .env file and an optional YAML file. Environment
// variables take precedence over the YAML file, which takes precedence over
// the built-in defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env")

	fc := &FileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if err := fc.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return newConfig(fc), nil
}

func newConfig(fc *FileConfig) Config {
	return mainConfig{
		EnvVars: EnvVars{file: fc},
		Client:  Client{file: fc},
		Store:   Store{file: fc},
	}
}

// FileConfig mirrors the optional YAML configuration file.
type FileConfig struct {
	App struct {
		Name       string `yaml:"name"`
		Env        string `yaml:"env" validate:"omitempty,oneof=DEV PROD TEST"`
		BaseURL    string `yaml:"base_url" validate:"omitempty,url"`
		LogLevel   string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
		DataFolder string `yaml:"data_folder"`
	} `yaml:"app"`

	Client struct {
		Timeout          string `yaml:"timeout" validate:"omitempty,duration"`
		RefreshThreshold string `yaml:"refresh_threshold" validate:"omitempty,duration"`
		RefreshPath      string `yaml:"refresh_path" validate:"omitempty,startswith=/"`
		LoginPath        string `yaml:"login_path" validate:"omitempty,startswith=/"`
		NoticeDuration   string `yaml:"notice_duration" validate:"omitempty,duration"`
		ChunkSize        int64  `yaml:"chunk_size" validate:"gte=0"`
	} `yaml:"client"`

	Store struct {
		Backend    string `yaml:"backend" validate:"omitempty,oneof=file memory redis"`
		File       string `yaml:"file"`
		Passphrase string `yaml:"passphrase"`
		Redis      struct {
			Addr      string `yaml:"addr" validate:"omitempty,hostname_port"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db" validate:"gte=0"`
			Namespace string `yaml:"namespace"`
		} `yaml:"redis"`
	} `yaml:"store"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := parseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the file values with go-playground/validator.
func (fc *FileConfig) Validate() error {
	return validate.Struct(fc)
}

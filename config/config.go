package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Minio     MinioConfig     `yaml:"minio"`
	Asset     AssetConfig     `yaml:"asset"`
	Ticketing TicketingConfig `yaml:"ticketing"`
	Store     StoreConfig     `yaml:"store"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// AssetConfig configures URL synthesis for legacy asset-storage descriptors
// that predate the MINIO-backed upload path.
type AssetConfig struct {
	Host            string `yaml:"host"`
	FallbackVersion string `yaml:"fallback_version"`
}

type TicketingConfig struct {
	APIURL      string `yaml:"api_url"`
	APIToken    string `yaml:"api_token"`
	CallbackURL string `yaml:"callback_url"`
	Seed        string `yaml:"seed"`
}

type StoreConfig struct {
	MaxContracts int `yaml:"max_contracts"`
}

type User struct {
	ID           string `yaml:"id" validate:"required"`
	Username     string `yaml:"username" validate:"required"`
	PasswordHash string `yaml:"password_hash" validate:"required"` // bcrypt
	Name         string `yaml:"name"`
	Email        string `yaml:"email" validate:"omitempty,email"`
	Role         string `yaml:"role" validate:"required,oneof=client freelancer admin"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Minio.Region == "" {
		cfg.Minio.Region = "us-east-1"
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Asset.Host == "" {
		cfg.Asset.Host = "assets.marketplace.local"
	}
	if cfg.Asset.FallbackVersion == "" {
		cfg.Asset.FallbackVersion = "v1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Reject malformed user entries up front; a bad role would otherwise
	// surface as confusing 401s at login time.
	v := validator.New()
	for i := range cfg.Users {
		if err := v.Struct(&cfg.Users[i]); err != nil {
			return nil, fmt.Errorf("invalid user %q: %w", cfg.Users[i].Username, err)
		}
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// FindUserByID finds a user by ID
func (c *Config) FindUserByID(id string) *User {
	for i := range c.Users {
		if c.Users[i].ID == id {
			return &c.Users[i]
		}
	}
	return nil
}

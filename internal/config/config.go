package config

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/joho/godotenv"
	validator "gopkg.in/go-playground/validator.v9"
)

type SitetrackConfig struct {
	Server       ServerConfig       `json:"server"`
	Storage      StorageConfig      `json:"storage"`
	Blob         BlobConfig         `json:"blob"`
	Admin        AdminConfig        `json:"admin"`
	Redis        string             `json:"redis"`
	Worker       WorkerConfig       `json:"worker"`
	Timezone     string             `json:"timezone"`
	Roster       []string           `json:"roster"`
	UI           UIConfig           `json:"ui"`
	Notification NotificationConfig `json:"notification"`
	Export       ExportConfig       `json:"export"`
	Log          LogConfig          `json:"log"`
	IsDev        bool               `json:"is_dev"`
}

type ServerConfig struct {
	Address string `json:"address" validate:"required"` // :8080
	// BaseURL is the externally visible root used to build photo URLs.
	BaseURL       string `json:"base_url" validate:"required,url"`
	MaxPhotoBytes int64  `json:"max_photo_bytes" validate:"gte=0"`
}

type StorageConfig struct {
	Workdir string `json:"workdir" validate:"required"`
	DBPath  string `json:"db_path"`
}

type BlobConfig struct {
	Backend string      `json:"backend" validate:"omitempty,oneof=file minio"`
	Minio   MinioConfig `json:"minio"`
}

type MinioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
	PublicURL string `json:"public_url"`
}

type AdminConfig struct {
	// SecretHash is the bcrypt hash printed by `sitetrack hash-secret`.
	SecretHash     string `json:"secret_hash" validate:"required"`
	TokenKey       string `json:"token_key" validate:"required,min=16"`
	TokenTTL       string `json:"token_ttl"`
	MaxAttempts    int    `json:"max_attempts" validate:"gte=0"`
	LockoutSeconds int    `json:"lockout_seconds" validate:"gte=0"`
}

type WorkerConfig struct {
	// Enabled turns on the async export queue. Without it exports are only
	// served synchronously and `sitetrack worker` refuses to start.
	Enabled     bool   `json:"enabled"`
	Queue       string `json:"queue"`
	Concurrency int    `json:"concurrency" validate:"gte=0"`
	// HeartbeatInterval is in seconds.
	HeartbeatInterval int `json:"heartbeat_interval" validate:"gte=0"`
}

type UIConfig struct {
	Title  string `json:"title"`
	Theme  string `json:"theme" validate:"omitempty,oneof=light dark"`
	Layout string `json:"layout" validate:"omitempty,oneof=compact wide"`
}

type NotificationConfig struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

type ExportConfig struct {
	ImageScale   float64 `json:"image_scale" validate:"gte=0,lte=1"`
	ImageOffsetX int     `json:"image_offset_x"`
	ImageOffsetY int     `json:"image_offset_y"`
	// FetchTimeout is in seconds.
	FetchTimeout int `json:"fetch_timeout" validate:"gte=0"`
	// FetchRetries is the number of retries after a failed image fetch. Zero
	// disables retrying; unset means 2.
	FetchRetries *int `json:"fetch_retries" validate:"omitempty,gte=0"`
}

type LogConfig struct {
	Level  string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" validate:"omitempty,oneof=json console"`
}

// Location resolves the configured timezone, Asia/Bangkok when unset.
func (c SitetrackConfig) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = "Asia/Bangkok"
	}
	return time.LoadLocation(name)
}

// TTL parses admin.token_ttl, 8h when unset.
func (c AdminConfig) TTL() (time.Duration, error) {
	if c.TokenTTL == "" {
		return 8 * time.Hour, nil
	}
	return time.ParseDuration(c.TokenTTL)
}

// Retries resolves export.fetch_retries.
func (c ExportConfig) Retries() int {
	if c.FetchRetries == nil {
		return 2
	}
	return *c.FetchRetries
}

// secretEnv lists the environment variables that override secrets from the file.
var secretEnv = map[string]func(*SitetrackConfig, string){
	"SITETRACK_ADMIN_SECRET_HASH": func(c *SitetrackConfig, v string) { c.Admin.SecretHash = v },
	"SITETRACK_TOKEN_KEY":         func(c *SitetrackConfig, v string) { c.Admin.TokenKey = v },
	"SITETRACK_REDIS":             func(c *SitetrackConfig, v string) { c.Redis = v },
	"MINIO_ACCESS_KEY":            func(c *SitetrackConfig, v string) { c.Blob.Minio.AccessKey = v },
	"MINIO_SECRET_KEY":            func(c *SitetrackConfig, v string) { c.Blob.Minio.SecretKey = v },
}

// LoadConfig load sitetrack config from file
func LoadConfig() (config SitetrackConfig, err error) {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	configPaths := []string{
		"/etc/sitetrack/config.yml",
		"../../utils/config.yml",
		"./utils/config.yml",
	}
	configPath := os.Getenv("SITETRACK_CONFIG_PATH")
	isDev := os.Getenv("DEV") == "1"
	yamlFile, err := ioutil.ReadFile(configPath)
	if err != nil {
		// load from predefined configPaths when no SITETRACK_CONFIG_PATH set
		for _, path := range configPaths {
			yamlFile, err = ioutil.ReadFile(path)
			if err == nil {
				log.Println("load config from : ", path)
				break
			}
		}
		if err != nil {
			return
		}
	}

	config, err = Parse(yamlFile, isDev)
	return
}

// Parse decodes and validates a YAML config, applying environment overrides.
func Parse(yamlFile []byte, isDev bool) (config SitetrackConfig, err error) {
	if err = yaml.Unmarshal(yamlFile, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	for name, set := range secretEnv {
		if v := os.Getenv(name); v != "" {
			set(&config, v)
		}
	}

	if isDev {
		// Since it's in dev env, let's move some path to ./tmp
		cwd, _ := os.Getwd()
		tmpDir := cwd + "/tmp/"
		if _, err := os.Stat(tmpDir); os.IsNotExist(err) {
			os.Mkdir(tmpDir, 0755)
		}
		config.Storage.Workdir = strings.ReplaceAll(config.Storage.Workdir, "/var/lib/", tmpDir)
		config.Storage.DBPath = strings.ReplaceAll(config.Storage.DBPath, "/var/lib/", tmpDir)
	}
	config.IsDev = isDev
	config.applyDefaults()

	validate := validator.New()
	if err = validate.Struct(config); err != nil {
		return config, err
	}
	if config.Blob.Backend == "minio" && (config.Blob.Minio.Endpoint == "" || config.Blob.Minio.Bucket == "") {
		return config, fmt.Errorf("blob.minio.endpoint and blob.minio.bucket are required for the minio backend")
	}
	if config.Worker.Enabled && config.Redis == "" {
		return config, fmt.Errorf("redis is required when the export worker is enabled")
	}
	if _, err = config.Location(); err != nil {
		return config, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}
	if _, err = config.Admin.TTL(); err != nil {
		return config, fmt.Errorf("invalid admin.token_ttl: %w", err)
	}
	return config, nil
}

func (c *SitetrackConfig) applyDefaults() {
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = strings.TrimSuffix(c.Storage.Workdir, "/") + "/sitetrack.db"
	}
	if c.Blob.Backend == "" {
		c.Blob.Backend = "file"
	}
	if c.Admin.MaxAttempts == 0 {
		c.Admin.MaxAttempts = 5
	}
	if c.Admin.LockoutSeconds == 0 {
		c.Admin.LockoutSeconds = 900
	}
	if c.Worker.Queue == "" {
		c.Worker.Queue = "sitetrack"
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.HeartbeatInterval == 0 {
		c.Worker.HeartbeatInterval = 30
	}
	if c.UI.Title == "" {
		c.UI.Title = "Site Tracker"
	}
	if c.Export.ImageScale == 0 {
		c.Export.ImageScale = 0.15
	}
	if c.Export.FetchTimeout == 0 {
		c.Export.FetchTimeout = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
		if c.IsDev {
			c.Log.Format = "console"
		}
	}
}

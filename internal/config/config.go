package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type StoreDriver string

const (
	StoreDriverFile   StoreDriver = "file"
	StoreDriverSQLite StoreDriver = "sqlite"
)

type PhotoDriver string

const (
	PhotoDriverFS PhotoDriver = "fs"
	PhotoDriverS3 PhotoDriver = "s3"
)

// Config holds the configuration for the radiolog server and its maintenance jobs.
type Config struct {
	// Listen is the address the HTTP server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// DataDir is the base directory for collections, photos and snapshots
	// when their locations are not configured explicitly.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// Store configures where users, radios and the checkout log are persisted.
	Store *StoreConfig `yaml:"store" mapstructure:"store"`
	// Photos configures the profile photo store.
	Photos *PhotosConfig `yaml:"photos" mapstructure:"photos"`
	// Cache configures the user lookup cache.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Inventory holds the defaults used when initialising the radio inventory.
	Inventory *InventoryConfig `yaml:"inventory" mapstructure:"inventory"`
	// Maintenance holds the schedules of the periodic maintenance jobs.
	Maintenance *MaintenanceConfig `yaml:"maintenance" mapstructure:"maintenance"`
}

// StoreConfig holds the record store configuration.
type StoreConfig struct {
	// Driver selects the backend: "file" (one JSON file per collection) or "sqlite".
	Driver StoreDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the directory of the file backend or the database file of the sqlite backend.
	Path string `yaml:"path" mapstructure:"path"`
}

// PhotosConfig holds the profile photo store configuration.
type PhotosConfig struct {
	// Driver selects the backend: "fs" or "s3".
	Driver PhotoDriver `yaml:"driver" mapstructure:"driver"`
	// Dir is the photo directory of the fs backend.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// MaxWidth and MaxHeight bound the size of stored photos in pixels.
	MaxWidth  int `yaml:"max_width" mapstructure:"max_width"`
	MaxHeight int `yaml:"max_height" mapstructure:"max_height"`
	// Quality is the JPEG quality (1-100) used when re-encoding photos.
	Quality int `yaml:"quality" mapstructure:"quality"`
	// CompactThreshold is the size in bytes above which stored photos are re-encoded by the compaction job.
	CompactThreshold int64 `yaml:"compact_threshold" mapstructure:"compact_threshold"`
	// S3 holds the bucket settings of the s3 backend.
	S3 *S3Config `yaml:"s3" mapstructure:"s3"`
}

// S3Config holds the S3 bucket configuration.
type S3Config struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Region          string `yaml:"region" mapstructure:"region"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	Prefix          string `yaml:"prefix" mapstructure:"prefix"`
	PathStyle       bool   `yaml:"path_style" mapstructure:"path_style"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// CacheConfig holds the cache configuration.
type CacheConfig struct {
	// Type is the cache backend: "memory" or "redis".
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the redis server.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// InventoryConfig holds the default inventory settings.
type InventoryConfig struct {
	// DefaultCount is the number of radios created by the inventory initialisation.
	DefaultCount int `yaml:"default_count" mapstructure:"default_count"`
	// DefaultName is the name given to those radios.
	DefaultName string `yaml:"default_name" mapstructure:"default_name"`
}

// MaintenanceConfig holds the cron schedules of the maintenance jobs.
// An empty schedule disables the job.
type MaintenanceConfig struct {
	// LogRotationSchedule archives and clears the checkout log.
	LogRotationSchedule string `yaml:"log_rotation_schedule" mapstructure:"log_rotation_schedule"`
	// UserBackupSchedule snapshots the user collection.
	UserBackupSchedule string `yaml:"user_backup_schedule" mapstructure:"user_backup_schedule"`
	// PhotoCompactionSchedule re-encodes oversized photos.
	PhotoCompactionSchedule string `yaml:"photo_compaction_schedule" mapstructure:"photo_compaction_schedule"`
	// ImportDir is the directory of photos used to reinitialise the user registry.
	ImportDir string `yaml:"import_dir" mapstructure:"import_dir"`
}

// Load reads the configuration from the given file, or searches the default
// locations when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	// bind some weirdly unsupported nested env vars
	bindNestedEnv(v)

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RADIOLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.radiolog")
		v.AddConfigPath("/etc/radiolog")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the RADIOLOG_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3000")
	v.SetDefault("data_dir", "./data")

	// Store defaults, an empty path is derived from data_dir
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.path", "")

	// Photo defaults
	v.SetDefault("photos.driver", PhotoDriverFS)
	v.SetDefault("photos.dir", "")
	v.SetDefault("photos.max_width", 1024)
	v.SetDefault("photos.max_height", 1024)
	v.SetDefault("photos.quality", 80)
	v.SetDefault("photos.compact_threshold", 4*1024*1024) // 4MB

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")

	// Inventory defaults
	v.SetDefault("inventory.default_count", 64)
	v.SetDefault("inventory.default_name", "ICOM")

	// Maintenance defaults
	v.SetDefault("maintenance.log_rotation_schedule", "0 4 * * 1") // Mondays at 4am
	v.SetDefault("maintenance.user_backup_schedule", "0 3 * * *")  // Daily at 3am
	v.SetDefault("maintenance.photo_compaction_schedule", "")      // Disabled
	v.SetDefault("maintenance.import_dir", "")
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// The s3 section has no defaults on purpose so it stays nil for the fs driver.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("photos.s3.bucket", "RADIOLOG_PHOTOS_S3_BUCKET")
	v.MustBindEnv("photos.s3.region", "RADIOLOG_PHOTOS_S3_REGION")
	v.MustBindEnv("photos.s3.endpoint", "RADIOLOG_PHOTOS_S3_ENDPOINT")
	v.MustBindEnv("photos.s3.prefix", "RADIOLOG_PHOTOS_S3_PREFIX")
	v.MustBindEnv("photos.s3.path_style", "RADIOLOG_PHOTOS_S3_PATH_STYLE")
	v.MustBindEnv("photos.s3.access_key_id", "RADIOLOG_PHOTOS_S3_ACCESS_KEY_ID")
	v.MustBindEnv("photos.s3.secret_access_key", "RADIOLOG_PHOTOS_S3_SECRET_ACCESS_KEY")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing radiolog config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.Store == nil {
		return fmt.Errorf("missing store config")
	}
	switch c.Store.Driver {
	case StoreDriverFile, StoreDriverSQLite:
	default:
		return fmt.Errorf("invalid store driver: %s, must be 'file' or 'sqlite'", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if c.Photos == nil {
		return fmt.Errorf("missing photos config")
	}
	switch c.Photos.Driver {
	case PhotoDriverFS:
		if c.Photos.Dir == "" {
			return fmt.Errorf("photo directory is required when using the fs driver")
		}
	case PhotoDriverS3:
		if c.Photos.S3 == nil || c.Photos.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required when using the s3 driver")
		}
	default:
		return fmt.Errorf("invalid photo driver: %s, must be 'fs' or 's3'", c.Photos.Driver)
	}
	if c.Photos.MaxWidth <= 0 || c.Photos.MaxHeight <= 0 {
		return fmt.Errorf("photo max width and height must be greater than 0")
	}
	if c.Photos.Quality < 1 || c.Photos.Quality > 100 {
		return fmt.Errorf("photo quality must be between 1 and 100")
	}
	if c.Photos.CompactThreshold <= 0 {
		return fmt.Errorf("photo compact threshold must be greater than 0")
	}

	if c.Cache != nil {
		switch c.Cache.Type {
		case CacheTypeMemory:
		case CacheTypeRedis:
			if c.Cache.RedisURL == "" {
				return fmt.Errorf("redis URL is required when using redis cache")
			}
		default:
			return fmt.Errorf("invalid cache type: %s, must be 'memory' or 'redis'", c.Cache.Type)
		}
	}

	if c.Inventory == nil {
		return fmt.Errorf("missing inventory config")
	}
	if c.Inventory.DefaultCount <= 0 {
		return fmt.Errorf("inventory default count must be greater than 0")
	}
	if c.Inventory.DefaultName == "" {
		return fmt.Errorf("inventory default name is required")
	}

	if c.Maintenance != nil {
		schedules := map[string]string{
			"log rotation":     c.Maintenance.LogRotationSchedule,
			"user backup":      c.Maintenance.UserBackupSchedule,
			"photo compaction": c.Maintenance.PhotoCompactionSchedule,
		}
		for name, schedule := range schedules {
			if schedule == "" {
				continue
			}
			// Basic validation for cron format (5 fields)
			if len(strings.Fields(schedule)) != 5 {
				return fmt.Errorf("%s schedule must be a valid cron expression with 5 fields (minute hour day month weekday)", name)
			}
		}
	}

	return nil
}

// sanitizeConfig trims values and derives unset paths from the data directory.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = strings.TrimSpace(c.Listen)
	c.DataDir = strings.TrimSpace(c.DataDir)

	if c.Store != nil && c.Store.Path == "" && c.DataDir != "" {
		switch c.Store.Driver {
		case StoreDriverSQLite:
			c.Store.Path = filepath.Join(c.DataDir, "radiolog.db")
		default:
			c.Store.Path = c.DataDir
		}
	}

	if c.Photos != nil && c.Photos.Dir == "" && c.DataDir != "" {
		c.Photos.Dir = filepath.Join(c.DataDir, "profile-images")
	}

	if c.Photos != nil && c.Photos.S3 != nil {
		c.Photos.S3.Endpoint = strings.TrimSuffix(strings.TrimSpace(c.Photos.S3.Endpoint), "/")
		c.Photos.S3.Prefix = strings.Trim(c.Photos.S3.Prefix, "/")
	}
}


package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	MaxImagesPerPost    int               `mapstructure:"max_images_per_post"`
	EnabledPlatformsRaw string            `mapstructure:"enabled_platforms"`
	EnabledPlatforms    []domain.Platform `mapstructure:"-"`
	ParallelPlatforms   bool              `mapstructure:"parallel_platforms"`

	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryBaseDelayMs int64         `mapstructure:"retry_base_delay_ms"`
	RetryMaxDelayMs  int64         `mapstructure:"retry_max_delay_ms"`
	RetryBaseDelay   time.Duration `mapstructure:"-"`
	RetryMaxDelay    time.Duration `mapstructure:"-"`

	RunTimeoutSeconds int64         `mapstructure:"run_timeout_seconds"`
	RunTimeout        time.Duration `mapstructure:"-"`

	GraphAPIBase            string        `mapstructure:"graph_api_base"`
	HTTPTimeoutSeconds      int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout             time.Duration `mapstructure:"-"`
	CallIntervalMs          int64         `mapstructure:"call_interval_ms"`
	CallInterval            time.Duration `mapstructure:"-"`
	ContainerPollAttempts   int           `mapstructure:"container_poll_attempts"`
	ContainerPollIntervalMs int64         `mapstructure:"container_poll_interval_ms"`
	ContainerPollInterval   time.Duration `mapstructure:"-"`
	RequiredFacebookScopes  string        `mapstructure:"required_facebook_scopes"`

	ItemsFile string `mapstructure:"items_file"`
	ImagesDir string `mapstructure:"images_dir"`

	ImageHostType   string `mapstructure:"image_host_type"`
	ImageURLPrefix  string `mapstructure:"image_url_prefix"`
	S3Bucket        string `mapstructure:"s3_bucket"`
	S3Region        string `mapstructure:"s3_region"`
	S3KeyPrefix     string `mapstructure:"s3_key_prefix"`
	S3PublicBaseURL string `mapstructure:"s3_public_base_url"`
	AWSAccessKeyID  string `mapstructure:"aws_access_key_id" json:"-"`
	AWSSecretKey    string `mapstructure:"aws_secret_access_key" json:"-"`

	NotifiersFile string `mapstructure:"notifiers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// MaxImagesPerPostLimit is the largest album or carousel both platforms accept.
const MaxImagesPerPostLimit = 10

var supportedPlatforms = map[domain.Platform]struct{}{
	domain.PlatformFacebook:  {},
	domain.PlatformInstagram: {},
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "khobor-poster")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_images_per_post", 4)
	v.SetDefault("enabled_platforms", "facebook,instagram")
	v.SetDefault("parallel_platforms", false)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 1000)
	v.SetDefault("retry_max_delay_ms", 30000)
	v.SetDefault("run_timeout_seconds", 900)
	v.SetDefault("graph_api_base", "https://graph.facebook.com/v18.0")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("call_interval_ms", 0)
	v.SetDefault("container_poll_attempts", 10)
	v.SetDefault("container_poll_interval_ms", 2000)
	v.SetDefault("required_facebook_scopes", "pages_manage_posts")
	v.SetDefault("items_file", "")
	v.SetDefault("images_dir", "./output")
	v.SetDefault("image_host_type", "none")
	v.SetDefault("image_url_prefix", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_key_prefix", "posts")
	v.SetDefault("s3_public_base_url", "")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/reports.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates raw values and derives durations. Every failure is a
// ConfigError so the run aborts before any network activity.
func (cfg *Config) normalize() error {
	if cfg.MaxImagesPerPost < 1 {
		return ConfigError{Field: "max_images_per_post", Reason: "must be at least 1"}
	}
	if cfg.MaxImagesPerPost > MaxImagesPerPostLimit {
		return ConfigError{Field: "max_images_per_post", Reason: fmt.Sprintf("must be at most %d", MaxImagesPerPostLimit)}
	}
	if cfg.RetryAttempts < 1 {
		return ConfigError{Field: "retry_attempts", Reason: "must be at least 1"}
	}
	if cfg.RetryBaseDelayMs < 0 || cfg.RetryMaxDelayMs < 0 {
		return ConfigError{Field: "retry_base_delay_ms", Reason: "retry delays must not be negative"}
	}
	if cfg.RunTimeoutSeconds <= 0 {
		return ConfigError{Field: "run_timeout_seconds", Reason: "must be positive seconds"}
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		return ConfigError{Field: "http_timeout_seconds", Reason: "must be positive seconds"}
	}
	if cfg.CallIntervalMs < 0 {
		return ConfigError{Field: "call_interval_ms", Reason: "must not be negative"}
	}
	if cfg.ContainerPollAttempts < 1 {
		return ConfigError{Field: "container_poll_attempts", Reason: "must be at least 1"}
	}
	if strings.TrimSpace(cfg.GraphAPIBase) == "" {
		return ConfigError{Field: "graph_api_base", Reason: "is required"}
	}
	if cfg.StorageTTLSeconds <= 0 {
		return ConfigError{Field: "storage_ttl_seconds", Reason: "must be positive seconds"}
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return ConfigError{Field: "storage_cleanup_interval_seconds", Reason: "must be positive seconds"}
	}

	platforms, err := parsePlatforms(cfg.EnabledPlatformsRaw)
	if err != nil {
		return err
	}
	cfg.EnabledPlatforms = platforms

	cfg.GraphAPIBase = strings.TrimRight(strings.TrimSpace(cfg.GraphAPIBase), "/")
	cfg.ImageHostType = strings.ToLower(strings.TrimSpace(cfg.ImageHostType))

	cfg.RetryBaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	cfg.RetryMaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	cfg.RunTimeout = time.Duration(cfg.RunTimeoutSeconds) * time.Second
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	cfg.CallInterval = time.Duration(cfg.CallIntervalMs) * time.Millisecond
	cfg.ContainerPollInterval = time.Duration(cfg.ContainerPollIntervalMs) * time.Millisecond
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second
	return nil
}

// parsePlatforms turns a comma separated list into a deduplicated, ordered set.
func parsePlatforms(raw string) ([]domain.Platform, error) {
	seen := map[domain.Platform]struct{}{}
	var out []domain.Platform
	for _, part := range strings.Split(raw, ",") {
		name := domain.Platform(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if _, ok := supportedPlatforms[name]; !ok {
			return nil, ConfigError{Field: "enabled_platforms", Reason: fmt.Sprintf("unsupported platform %q", name)}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, ConfigError{Field: "enabled_platforms", Reason: "no platforms enabled"}
	}
	return out, nil
}

// FacebookScopes returns the scopes a Facebook token must carry.
func (cfg *Config) FacebookScopes() []string {
	var out []string
	for _, s := range strings.Split(cfg.RequiredFacebookScopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultStealthWindow      = 72 * time.Hour

	// StorageDriverPostgres wires the GORM repositories
	StorageDriverPostgres = "postgres"
	// StorageDriverMemory wires the in-process repositories
	StorageDriverMemory = "memory"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Storage selects the persistence backend
	Storage *StorageConfig `json:"storage" yaml:"storage"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Auth configuration for admin token verification
	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Firebase configuration for push notifications
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Email provider configuration
	Email *EmailConfig `json:"email" yaml:"email"`

	// SMS provider configuration
	SMS *SMSConfig `json:"sms" yaml:"sms"`

	// PubSub configuration for event fan-out
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	// Notification holds the decision and delivery tunables
	Notification *NotificationConfig `json:"notification" yaml:"notification"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// StorageConfig defines which repository implementation is wired
type StorageConfig struct {
	// Driver is "postgres" or "memory"
	Driver string `json:"driver" yaml:"driver"`
	// AutoMigrate creates missing tables on start (postgres only)
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`
	// SlowQueryThreshold marks queries logged as slow; zero keeps the default
	SlowQueryThreshold time.Duration `json:"slowQueryThreshold" yaml:"slowQueryThreshold"`
	// SeedPath is a JSON family directory loaded into the memory driver on start
	SeedPath string `json:"seedPath" yaml:"seedPath"`
}

// AuthConfig defines admin token verification settings
type AuthConfig struct {
	AccessSecret string        `json:"accessSecret" yaml:"accessSecret"`
	AccessTTL    time.Duration `json:"accessTtl" yaml:"accessTtl"`
	Issuer       string        `json:"issuer" yaml:"issuer"`
	AdminRole    string        `json:"adminRole" yaml:"adminRole"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// EmailConfig defines the transactional email provider
type EmailConfig struct {
	BaseURL     string        `json:"baseUrl" yaml:"baseUrl"`
	ServerToken string        `json:"serverToken" yaml:"serverToken"`
	FromAddress string        `json:"fromAddress" yaml:"fromAddress"`
	AppURL      string        `json:"appUrl" yaml:"appUrl"`
	RatePerSec  int           `json:"ratePerSec" yaml:"ratePerSec"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// SMSConfig defines the SMS provider
type SMSConfig struct {
	BaseURL    string        `json:"baseUrl" yaml:"baseUrl"`
	AccountSID string        `json:"accountSid" yaml:"accountSid"`
	AuthToken  string        `json:"authToken" yaml:"authToken"`
	FromNumber string        `json:"fromNumber" yaml:"fromNumber"`
	RatePerSec int           `json:"ratePerSec" yaml:"ratePerSec"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "inline" dispatches in-process, "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// Expected audience of push OIDC tokens; defaults to the request URL
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

// NotificationConfig defines decision and delivery tunables
type NotificationConfig struct {
	// Stealth window length; reactivation extends by the same amount
	StealthWindowDuration time.Duration `json:"stealthWindowDuration" yaml:"stealthWindowDuration"`

	StatusThrottleWindow   time.Duration   `json:"statusThrottleWindow" yaml:"statusThrottleWindow"`
	LoginFingerprintWindow time.Duration   `json:"loginFingerprintWindow" yaml:"loginFingerprintWindow"`
	SyncThresholdHours     []int           `json:"syncThresholdHours" yaml:"syncThresholdHours"`
	FanOutConcurrency      int             `json:"fanOutConcurrency" yaml:"fanOutConcurrency"`
	DelayedBatchSize       int             `json:"delayedBatchSize" yaml:"delayedBatchSize"`
	Scheduler              SchedulerConfig `json:"scheduler" yaml:"scheduler"`
}

// SchedulerConfig defines the cron specs for periodic jobs
type SchedulerConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	Timezone      string        `json:"timezone" yaml:"timezone"`
	HourlyDigest  string        `json:"hourlyDigest" yaml:"hourlyDigest"`
	DailyDigest   string        `json:"dailyDigest" yaml:"dailyDigest"`
	DelayedQueue  string        `json:"delayedQueue" yaml:"delayedQueue"`
	StealthExpiry string        `json:"stealthExpiry" yaml:"stealthExpiry"`
	JobTimeout    time.Duration `json:"jobTimeout" yaml:"jobTimeout"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Storage == nil || cfg.Storage.Driver == "" {
		cfg.Storage = &StorageConfig{Driver: StorageDriverPostgres}
	}

	cfg.Notification = cfg.Notification.WithDefaults()

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// WithDefaults fills zero-valued tunables. A nil receiver yields a fully defaulted config.
func (c *NotificationConfig) WithDefaults() *NotificationConfig {
	out := NotificationConfig{}
	if c != nil {
		out = *c
	}

	if out.StealthWindowDuration <= 0 {
		out.StealthWindowDuration = defaultStealthWindow
	}
	if out.StatusThrottleWindow <= 0 {
		out.StatusThrottleWindow = time.Hour
	}
	if out.LoginFingerprintWindow <= 0 {
		out.LoginFingerprintWindow = 5 * time.Minute
	}
	if len(out.SyncThresholdHours) == 0 {
		out.SyncThresholdHours = []int{4, 12, 24, 48}
	}
	if out.FanOutConcurrency <= 0 {
		out.FanOutConcurrency = 8
	}
	if out.DelayedBatchSize <= 0 {
		out.DelayedBatchSize = 200
	}

	sch := &out.Scheduler
	if sch.Timezone == "" {
		sch.Timezone = "UTC"
	}
	if sch.HourlyDigest == "" {
		sch.HourlyDigest = "0 * * * *"
	}
	if sch.DailyDigest == "" {
		sch.DailyDigest = "0 18 * * *"
	}
	if sch.DelayedQueue == "" {
		sch.DelayedQueue = "@every 5m"
	}
	if sch.StealthExpiry == "" {
		sch.StealthExpiry = "@every 15m"
	}
	if sch.JobTimeout <= 0 {
		sch.JobTimeout = 10 * time.Minute
	}

	return &out
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}

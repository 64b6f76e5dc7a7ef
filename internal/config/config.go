package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location.
const ConfigPath = "config.yaml"

// Defaults for intake limits. Each can be overridden via YAML or env.
const (
	DefaultMaxFileSizeBytes = 5 * 1024 * 1024
	DefaultMaxResumes       = 50
	DefaultMaxJobTextChars  = 5000
	DefaultTopN             = 5
	DefaultEvaluatorTimeout = 30
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// Persistence. Empty DatabaseURL selects the in-memory store.
	DatabaseURL string `yaml:"databaseURL"`

	// Raw file storage: "disk" (default) or "minio".
	StorageBackend string `yaml:"storageBackend"`
	StorageDir     string `yaml:"storageDir"`
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	// Evaluator (OpenAI-compatible chat completions endpoint).
	EvaluatorURL            string  `yaml:"evaluatorURL"`
	EvaluatorAPIKey         string  `yaml:"evaluatorAPIKey"`
	EvaluatorModel          string  `yaml:"evaluatorModel"`
	EvaluatorTimeoutSeconds int     `yaml:"evaluatorTimeoutSeconds"`
	EvaluatorTemperature    float64 `yaml:"evaluatorTemperature"`

	// Optional redis-backed rate limiting of inbound events.
	RedisAddr          string `yaml:"redisAddr"`
	RedisPassword      string `yaml:"redisPassword"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute"`

	// Intake limits.
	MaxFileSizeBytes int64 `yaml:"maxFileSizeBytes"`
	MaxResumes       int   `yaml:"maxResumes"`
	MaxJobTextChars  int   `yaml:"maxJobTextChars"`
	TopN             int   `yaml:"topN"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("RESUMESCOUT_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	if v := os.Getenv("RESUMESCOUT_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("RESUMESCOUT_MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("RESUMESCOUT_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("RESUMESCOUT_MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("RESUMESCOUT_MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("RESUMESCOUT_EVALUATOR_URL"); v != "" {
		cfg.EvaluatorURL = v
	}
	if v := os.Getenv("RESUMESCOUT_EVALUATOR_API_KEY"); v != "" {
		cfg.EvaluatorAPIKey = v
	}
	if v := os.Getenv("RESUMESCOUT_EVALUATOR_MODEL"); v != "" {
		cfg.EvaluatorModel = v
	}
	if v := os.Getenv("RESUMESCOUT_EVALUATOR_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EvaluatorTimeoutSeconds = n
		}
	}
	if v := os.Getenv("RESUMESCOUT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("RESUMESCOUT_MAX_FILE_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxFileSizeBytes = n
		}
	}
	if v := os.Getenv("RESUMESCOUT_MAX_RESUMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxResumes = n
		}
	}
	if v := os.Getenv("RESUMESCOUT_MAX_JOB_TEXT_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxJobTextChars = n
		}
	}
	if v := os.Getenv("RESUMESCOUT_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopN = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "disk"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "data/resumes"
	}
	if cfg.EvaluatorTimeoutSeconds <= 0 {
		cfg.EvaluatorTimeoutSeconds = DefaultEvaluatorTimeout
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if cfg.MaxResumes <= 0 {
		cfg.MaxResumes = DefaultMaxResumes
	}
	if cfg.MaxJobTextChars <= 0 {
		cfg.MaxJobTextChars = DefaultMaxJobTextChars
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch cfg.StorageBackend {
	case "disk":
		if strings.TrimSpace(cfg.StorageDir) == "" {
			return errors.New("config: storageDir is required for disk storage")
		}
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return errors.New("config: minioEndpoint and minioBucket are required for minio storage")
		}
	default:
		return fmt.Errorf("config: unknown storageBackend %q (want disk or minio)", cfg.StorageBackend)
	}
	if cfg.EvaluatorURL == "" {
		return errors.New("config: evaluatorURL is required (set in config.yaml or RESUMESCOUT_EVALUATOR_URL)")
	}
	if cfg.EvaluatorModel == "" {
		return errors.New("config: evaluatorModel is required")
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: rateLimitPerMinute must be >= 0")
	}
	if cfg.RateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: rateLimitPerMinute requires redisAddr")
	}
	return nil
}

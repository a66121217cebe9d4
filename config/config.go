package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kavos113/assistant-artifacts/domain"
	"github.com/spf13/viper"
)

const (
	BackendS3         = "s3"
	BackendFilesystem = "filesystem"

	envPrefix = "ARTIFACT"
)

type S3 struct {
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	PublicEndpoint string `mapstructure:"public_endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PartSize       int64  `mapstructure:"part_size"`
	Concurrency    int    `mapstructure:"concurrency"`
}

type Config struct {
	Backend     string   `mapstructure:"backend"`
	RootFolder  string   `mapstructure:"root_folder"`
	Services    []string `mapstructure:"services"`
	StoragePath string   `mapstructure:"storage_path"`
	LedgerPath  string   `mapstructure:"ledger_path"`
	ListenAddr  string   `mapstructure:"listen_addr"`
	LogLevel    string   `mapstructure:"log_level"`
	S3          S3       `mapstructure:"s3"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendS3)
	v.SetDefault("root_folder", domain.DefaultRootFolder)
	v.SetDefault("services", domain.DefaultServices)
	v.SetDefault("storage_path", "./data/artifacts")
	v.SetDefault("ledger_path", "./data/uploads.db")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("s3.bucket", "assistant01")
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.public_endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.part_size", 8*1024*1024)
	v.SetDefault("s3.concurrency", 5)
}

// Load reads configuration from defaults, an optional config file and
// ARTIFACT_* environment variables, in increasing priority. An empty path
// looks for artifact-config.yaml in the working and home directories.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("artifact-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// ARTIFACT_SERVICES arrives as one comma separated string
	cfg.Services = splitList(strings.Join(cfg.Services, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket must not be empty")
		}
	case BackendFilesystem:
		if c.StoragePath == "" {
			return errors.New("storage_path must not be empty")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if len(c.Services) == 0 {
		return errors.New("services must not be empty")
	}
	if c.RootFolder == "" {
		return errors.New("root_folder must not be empty")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

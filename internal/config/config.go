package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// Config represents the top-level YAML configuration file. Every field has a
// sensible default so the watchdog also runs with no config file at all.
type Config struct {
	// Namespace is where Velero keeps its Backup objects.
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// TimeWindow is the trailing window in which failed backups are considered.
	TimeWindow time.Duration `mapstructure:"time_window" yaml:"time_window"`

	Velero VeleroConfig `mapstructure:"velero" yaml:"velero"`
	Kube   KubeConfig   `mapstructure:"kube"   yaml:"kube"`
	Vault  VaultConfig  `mapstructure:"vault"  yaml:"vault"`
	Watch  WatchConfig  `mapstructure:"watch"  yaml:"watch"`
}

// VeleroConfig controls how the velero CLI is invoked.
type VeleroConfig struct {
	Binary  string        `mapstructure:"binary"  yaml:"binary"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// KubeConfig holds connection settings for the Kubernetes API server.
// When APIServer is empty the in-cluster service account is tried first,
// then the kubeconfig file.
type KubeConfig struct {
	APIServer  string        `mapstructure:"api_server" yaml:"api_server,omitempty"`
	Token      string        `mapstructure:"token"      yaml:"token,omitempty"`
	Kubeconfig string        `mapstructure:"kubeconfig" yaml:"kubeconfig,omitempty"`
	Timeout    time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// VaultConfig holds connection settings for HashiCorp Vault. When Address is
// set, the Kubernetes API credentials are read from the KV path instead of
// the local environment.
type VaultConfig struct {
	Address     string `mapstructure:"address"      yaml:"address,omitempty"`
	ApproleName string `mapstructure:"approle_name" yaml:"approle_name,omitempty"`
	RoleID      string `mapstructure:"role_id"      yaml:"role_id,omitempty"`
	KVPath      string `mapstructure:"kv_path"      yaml:"kv_path,omitempty"`
}

// WatchConfig configures the self-scheduling watch mode.
type WatchConfig struct {
	Schedule       string `mapstructure:"schedule"        yaml:"schedule"`
	MetricsAddress string `mapstructure:"metrics_address" yaml:"metrics_address"`
}

// Load reads the configuration from the given YAML file using Viper and
// unmarshals into the Config struct. An empty path loads defaults only.
func (c *Config) Load(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("velero_watchdog")
	v.AutomaticEnv()

	v.SetDefault("namespace", "velero")
	v.SetDefault("time_window", 24*time.Hour)
	v.SetDefault("velero.binary", "velero")
	v.SetDefault("velero.timeout", 2*time.Minute)
	v.SetDefault("kube.timeout", 30*time.Second)
	v.SetDefault("watch.schedule", "0 * * * *")
	v.SetDefault("watch.metrics_address", ":9090")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: read config %s: %v", ErrLoadConfig, path, err)
		}
	}

	if err := v.UnmarshalExact(c); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	return c.Validate()
}

// Validate checks the loaded configuration for values the watchdog cannot
// work with.
func (c *Config) Validate() error {
	if c.TimeWindow <= 0 {
		return fmt.Errorf("%w: time_window must be positive, got %s", ErrValidateConfig, c.TimeWindow)
	}
	if c.Velero.Binary == "" {
		return fmt.Errorf("%w: velero.binary must not be empty", ErrValidateConfig)
	}
	if c.Velero.Timeout <= 0 || c.Kube.Timeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrValidateConfig)
	}
	return nil
}

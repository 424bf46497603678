package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kebairia/velero-watchdog/internal/catalog"
	"github.com/kebairia/velero-watchdog/internal/config"
	"github.com/kebairia/velero-watchdog/internal/kube"
	"github.com/kebairia/velero-watchdog/internal/logger"
	"github.com/kebairia/velero-watchdog/internal/vault"
	"github.com/kebairia/velero-watchdog/internal/watchdog"
)

// loadConfig loads the YAML config and applies command-line overrides.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	if err := cfg.Load(configFile); err != nil {
		return cfg, err
	}
	if namespace != "" {
		cfg.Namespace = namespace
	}
	if timeWindow > 0 {
		cfg.TimeWindow = time.Duration(timeWindow) * time.Hour
	}
	return cfg, nil
}

// resolveCredentials picks the Kubernetes API credentials in order of
// preference: explicit config, Vault KV, in-cluster service account,
// kubeconfig file.
func resolveCredentials(ctx context.Context, cfg config.Config, log logger.Logger) (kube.Credentials, error) {
	if cfg.Kube.APIServer != "" {
		log.Debug("using API credentials from configuration")
		return kube.Credentials{
			APIServer: cfg.Kube.APIServer,
			Token:     cfg.Kube.Token,
		}, nil
	}

	if cfg.Vault.Address != "" {
		log.Debug("fetching API credentials from Vault", "path", cfg.Vault.KVPath)
		client, err := vault.NewClient(ctx,
			vault.WithAddress(cfg.Vault.Address),
			vault.WithAppRole(cfg.Vault.RoleID, cfg.Vault.ApproleName),
		)
		if err != nil {
			return kube.Credentials{}, fmt.Errorf("vault client init: %w", err)
		}
		creds, err := client.GetKubeCredentials(ctx, cfg.Vault.KVPath)
		if err != nil {
			return kube.Credentials{}, fmt.Errorf("vault read: %w", err)
		}
		return kube.Credentials{
			APIServer: creds.APIServer,
			Token:     creds.Token,
			CACert:    []byte(creds.CACert),
		}, nil
	}

	if creds, err := kube.InClusterCredentials(); err == nil {
		log.Debug("using in-cluster service account credentials")
		return creds, nil
	}

	path := cfg.Kube.Kubeconfig
	if path == "" {
		path = kube.DefaultKubeconfigPath()
	}
	log.Debug("using kubeconfig credentials", "path", path)
	return kube.KubeconfigCredentials(path)
}

// newWatchdog wires the full engine from configuration.
func newWatchdog(ctx context.Context, cfg config.Config) (*watchdog.Watchdog, error) {
	log := logger.Global()

	creds, err := resolveCredentials(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("resolve API credentials: %w", err)
	}

	kubeClient, err := kube.NewClient(creds, cfg.Kube.Timeout)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client init: %w", err)
	}

	cat := catalog.NewClient(kubeClient,
		catalog.WithNamespace(cfg.Namespace),
		catalog.WithBinary(cfg.Velero.Binary),
		catalog.WithTimeout(cfg.Velero.Timeout),
		catalog.WithLogger(log),
	)

	return watchdog.New(cat,
		watchdog.WithWindow(cfg.TimeWindow),
		watchdog.WithDryRun(dryRun),
		watchdog.WithKeepFailed(keepBackups),
		watchdog.WithLogger(log),
	), nil
}

package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/kebairia/velero-watchdog/internal/kube"
	"github.com/kebairia/velero-watchdog/internal/logger"
)

// ErrCatalogUnavailable indicates the backing system could not be reached
// or timed out. It is always fatal to the current pass.
var ErrCatalogUnavailable = errors.New("backup catalog unavailable")

// ErrNotFound indicates the named backup record no longer exists.
var ErrNotFound = errors.New("backup record not found")

// velero prints `Backup request "<name>" submitted successfully.` on create.
var backupRequestPattern = regexp.MustCompile(`Backup request "([^"]+)"`)

// veleroAPI is the slice of the Kubernetes client the catalog needs.
type veleroAPI interface {
	ListBackups(ctx context.Context, namespace string) ([]kube.BackupObject, error)
	GetBackup(ctx context.Context, namespace, name string) (*kube.BackupObject, error)
	DeleteBackup(ctx context.Context, namespace, name string) error
}

// runCommand executes one external command and returns its combined output.
// Swapped out in tests.
type runCommand func(ctx context.Context, name string, args ...string) (string, error)

// Client is the typed accessor over the backup catalog. Listing, fetching,
// and deleting records go through the Kubernetes API; creating a new backup
// from a schedule goes through the velero CLI, which builds the backup spec
// from the schedule's current template.
type Client struct {
	api       veleroAPI
	namespace string
	binary    string
	timeout   time.Duration
	run       runCommand
	log       logger.Logger
}

// Option overrides a default setting on the Client.
type Option func(*Client)

// WithNamespace overrides the namespace Velero runs in.
func WithNamespace(namespace string) Option {
	return func(c *Client) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithBinary overrides the path to the velero CLI.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds each velero CLI invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient returns a catalog Client over the given API client.
func NewClient(api veleroAPI, opts ...Option) *Client {
	c := &Client{
		api:       api,
		namespace: "velero",
		binary:    "velero",
		timeout:   2 * time.Minute,
		run:       runExec,
		log:       logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns a snapshot of every backup record in the namespace. Any
// failure to reach the backing system surfaces as ErrCatalogUnavailable.
func (c *Client) List(ctx context.Context) ([]Backup, error) {
	c.log.Debug("fetching backup records", "namespace", c.namespace)
	objects, err := c.api.ListBackups(ctx, c.namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: list backups: %v", ErrCatalogUnavailable, err)
	}

	backups := make([]Backup, 0, len(objects))
	for _, obj := range objects {
		backups = append(backups, fromObject(obj))
	}
	return backups, nil
}

// Get fetches a single backup record by name.
func (c *Client) Get(ctx context.Context, name string) (Backup, error) {
	obj, err := c.api.GetBackup(ctx, c.namespace, name)
	if err != nil {
		if errors.Is(err, kube.ErrNotFound) {
			return Backup{}, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return Backup{}, fmt.Errorf("get backup %q: %w", name, err)
	}
	return fromObject(*obj), nil
}

// Delete removes the backup record by name. Returns ErrNotFound when the
// record is already gone.
func (c *Client) Delete(ctx context.Context, name string) error {
	c.log.Debug("deleting backup record", "backup", name)
	if err := c.api.DeleteBackup(ctx, c.namespace, name); err != nil {
		if errors.Is(err, kube.ErrNotFound) {
			return fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("delete backup %q: %w", name, err)
	}
	return nil
}

// CreateFromSchedule triggers a new backup from the named schedule and
// returns the new backup's name. The new backup inherits the schedule's
// current template, target, and retention policy.
func (c *Client) CreateFromSchedule(ctx context.Context, schedule string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"backup", "create",
		"--from-schedule", schedule,
		"--namespace", c.namespace,
	}
	c.log.Debug("creating backup from schedule", "schedule", schedule)
	output, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return "", fmt.Errorf("create backup from schedule %q: %w", schedule, err)
	}

	match := backupRequestPattern.FindStringSubmatch(output)
	if match == nil {
		return "", fmt.Errorf("create backup from schedule %q: no backup name in output: %s",
			schedule, output)
	}
	return match[1], nil
}

// runExec is the real runCommand backed by os/exec.
func runExec(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(out.Bytes()))
	}
	return out.String(), nil
}

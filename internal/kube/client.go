package kube

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

const (
	backupsPathFormat = "/apis/velero.io/v1/namespaces/%s/backups"

	serviceAccountDir = "/var/run/secrets/kubernetes.io/serviceaccount"
)

// ErrNotFound indicates the requested object does not exist on the server.
var ErrNotFound = errors.New("object not found")

// Credentials are the settings needed to reach the Kubernetes API server.
type Credentials struct {
	APIServer string
	Token     string
	CACert    []byte // PEM bundle; empty means the system pool
	Insecure  bool
}

// InClusterCredentials builds Credentials from the pod's service account,
// the same way an in-cluster client would.
func InClusterCredentials() (Credentials, error) {
	host, port := os.Getenv("KUBERNETES_SERVICE_HOST"), os.Getenv("KUBERNETES_SERVICE_PORT")
	if host == "" || port == "" {
		return Credentials{}, errors.New("not running in-cluster: KUBERNETES_SERVICE_HOST/PORT unset")
	}
	token, err := os.ReadFile(path.Join(serviceAccountDir, "token"))
	if err != nil {
		return Credentials{}, fmt.Errorf("read service account token: %w", err)
	}
	ca, err := os.ReadFile(path.Join(serviceAccountDir, "ca.crt"))
	if err != nil {
		return Credentials{}, fmt.Errorf("read service account CA: %w", err)
	}
	return Credentials{
		APIServer: "https://" + host + ":" + port,
		Token:     strings.TrimSpace(string(token)),
		CACert:    ca,
	}, nil
}

// Client is a minimal REST client for the velero.io/v1 Backup resources.
// Every call is bounded by the configured timeout.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient builds a Client from Credentials. timeout bounds each API call.
func NewClient(creds Credentials, timeout time.Duration) (*Client, error) {
	if creds.APIServer == "" {
		return nil, errors.New("API server address is required")
	}

	transport := cleanhttp.DefaultPooledTransport()
	tlsCfg := &tls.Config{InsecureSkipVerify: creds.Insecure}
	if len(creds.CACert) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(creds.CACert) {
			return nil, errors.New("no usable certificates in CA bundle")
		}
		tlsCfg.RootCAs = pool
	}
	transport.TLSClientConfig = tlsCfg

	return &Client{
		base:  strings.TrimRight(creds.APIServer, "/"),
		token: creds.Token,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// ListBackups returns all Backup objects in the namespace.
func (c *Client) ListBackups(ctx context.Context, namespace string) ([]BackupObject, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf(backupsPathFormat, namespace))
	if err != nil {
		return nil, err
	}
	var list BackupList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode backup list: %w", err)
	}
	return list.Items, nil
}

// GetBackup returns a single Backup object by name.
func (c *Client) GetBackup(ctx context.Context, namespace, name string) (*BackupObject, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf(backupsPathFormat, namespace)+"/"+name)
	if err != nil {
		return nil, err
	}
	var backup BackupObject
	if err := json.Unmarshal(body, &backup); err != nil {
		return nil, fmt.Errorf("decode backup %q: %w", name, err)
	}
	return &backup, nil
}

// DeleteBackup removes the Backup object by name. Returns ErrNotFound when
// the object is already gone.
func (c *Client) DeleteBackup(ctx context.Context, namespace, name string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf(backupsPathFormat, namespace)+"/"+name)
	return err
}

// do performs one API request and returns the response body. Non-2xx
// responses become errors; 404 maps to ErrNotFound.
func (c *Client) do(ctx context.Context, method, apiPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+apiPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, apiPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", apiPath, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s: server returned %s: %s",
			method, apiPath, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

package kube

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// kubeconfigFile covers the slice of a kubeconfig the watchdog needs:
// the current context's cluster address, CA, and user token.
type kubeconfigFile struct {
	CurrentContext string `yaml:"current-context"`
	Contexts       []struct {
		Name    string `yaml:"name"`
		Context struct {
			Cluster string `yaml:"cluster"`
			User    string `yaml:"user"`
		} `yaml:"context"`
	} `yaml:"contexts"`
	Clusters []struct {
		Name    string `yaml:"name"`
		Cluster struct {
			Server                   string `yaml:"server"`
			CertificateAuthority     string `yaml:"certificate-authority"`
			CertificateAuthorityData string `yaml:"certificate-authority-data"`
			InsecureSkipTLSVerify    bool   `yaml:"insecure-skip-tls-verify"`
		} `yaml:"cluster"`
	} `yaml:"clusters"`
	Users []struct {
		Name string `yaml:"name"`
		User struct {
			Token     string `yaml:"token"`
			TokenFile string `yaml:"tokenFile"`
		} `yaml:"user"`
	} `yaml:"users"`
}

// DefaultKubeconfigPath resolves the kubeconfig location the way kubectl
// does: $KUBECONFIG first, then ~/.kube/config.
func DefaultKubeconfigPath() string {
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

// KubeconfigCredentials builds Credentials from the current context of the
// kubeconfig at path.
func KubeconfigCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read kubeconfig %s: %w", path, err)
	}

	var kc kubeconfigFile
	if err := yaml.Unmarshal(data, &kc); err != nil {
		return Credentials{}, fmt.Errorf("parse kubeconfig %s: %w", path, err)
	}
	if kc.CurrentContext == "" {
		return Credentials{}, errors.New("kubeconfig has no current-context")
	}

	var clusterName, userName string
	for _, c := range kc.Contexts {
		if c.Name == kc.CurrentContext {
			clusterName, userName = c.Context.Cluster, c.Context.User
		}
	}
	if clusterName == "" {
		return Credentials{}, fmt.Errorf("context %q not found in kubeconfig", kc.CurrentContext)
	}

	var creds Credentials
	for _, c := range kc.Clusters {
		if c.Name != clusterName {
			continue
		}
		creds.APIServer = c.Cluster.Server
		creds.Insecure = c.Cluster.InsecureSkipTLSVerify
		switch {
		case c.Cluster.CertificateAuthorityData != "":
			ca, err := base64.StdEncoding.DecodeString(c.Cluster.CertificateAuthorityData)
			if err != nil {
				return Credentials{}, fmt.Errorf("decode certificate-authority-data: %w", err)
			}
			creds.CACert = ca
		case c.Cluster.CertificateAuthority != "":
			ca, err := os.ReadFile(c.Cluster.CertificateAuthority)
			if err != nil {
				return Credentials{}, fmt.Errorf("read certificate-authority file: %w", err)
			}
			creds.CACert = ca
		}
	}
	if creds.APIServer == "" {
		return Credentials{}, fmt.Errorf("cluster %q not found in kubeconfig", clusterName)
	}

	for _, u := range kc.Users {
		if u.Name != userName {
			continue
		}
		creds.Token = u.User.Token
		if creds.Token == "" && u.User.TokenFile != "" {
			token, err := os.ReadFile(u.User.TokenFile)
			if err != nil {
				return Credentials{}, fmt.Errorf("read token file: %w", err)
			}
			creds.Token = strings.TrimSpace(string(token))
		}
	}

	return creds, nil
}

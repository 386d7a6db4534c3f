package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind identifies one way a caller can authenticate. Each route passes the
// kinds it accepts, in the order they are tried.
type Kind string

const (
	// KindClientOwn authenticates an automation client acting as itself.
	KindClientOwn Kind = "client_own"
	// KindTenantAdmin authenticates a tenant administrator, who may act for
	// any principal in the tenant.
	KindTenantAdmin Kind = "tenant_admin"
	// KindHostAgent authenticates a host's agent, scoped to the whole tenant
	// for reservation traffic landing on that host.
	KindHostAgent Kind = "host_agent"
	// KindUserSelf authenticates an end user acting as themselves.
	KindUserSelf Kind = "user_self"
)

// KindSpec names the headers carrying a kind's identifier and secret.
type KindSpec struct {
	IDHeader     string `yaml:"id_header"`
	SecretHeader string `yaml:"secret_header"`
}

// Table maps each kind to its wire spec.
type Table map[Kind]KindSpec

// DefaultTable returns the built-in header layout.
func DefaultTable() Table {
	return Table{
		KindClientOwn:   {IDHeader: "X-Client-ID", SecretHeader: "X-Client-Secret"},
		KindTenantAdmin: {IDHeader: "X-Admin-ID", SecretHeader: "X-Admin-Secret"},
		KindHostAgent:   {IDHeader: "X-Host", SecretHeader: "X-Host-Secret"},
		KindUserSelf:    {IDHeader: "X-User-ID", SecretHeader: "X-User-Secret"},
	}
}

// LoadTable returns the default table overlaid with any kinds present in the
// YAML file at path. An empty path means pure defaults. Unknown kinds in the
// file are configuration errors, not silently added auth surfaces.
func LoadTable(path string) (Table, error) {
	table := DefaultTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authz config: %w", err)
	}

	var overrides map[Kind]KindSpec
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse authz config: %w", err)
	}

	for kind, spec := range overrides {
		base, ok := table[kind]
		if !ok {
			return nil, fmt.Errorf("authz config: unknown kind %q", kind)
		}
		if spec.IDHeader != "" {
			base.IDHeader = spec.IDHeader
		}
		if spec.SecretHeader != "" {
			base.SecretHeader = spec.SecretHeader
		}
		table[kind] = base
	}

	return table, nil
}

package ports

import "context"

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string
	Version   string
	Metadata  map[string]string
	CreatedAt string
}

// SecretManager retrieves secrets (e.g. the database password) from a secret
// management backend. Implementations handle authentication, caching, and
// backend-specific path formats:
//   - AWS: "renewo/db/password"
//   - Vault: "secret/data/renewo/db"
//   - Local: a file path relative to the configured base directory
type SecretManager interface {
	// GetSecret retrieves a secret by its path/name
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// PutSecret creates or updates a secret, returning the new version
	PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (version string, err error)
}

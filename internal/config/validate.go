package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if c.Storage.Driver == StoragePostgres {
		if err := c.Database.validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := c.Blob.validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}

	if c.Knowledge.MaxRetries < 1 {
		return fmt.Errorf("knowledge.max_retries must be >= 1 (got %d)", c.Knowledge.MaxRetries)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Driver {
	case StoragePostgres, StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.DSN == "" {
		return fmt.Errorf("dsn is required for the postgres driver")
	}
	if d.MaxConns < 1 {
		return fmt.Errorf("max_conns must be >= 1 (got %d)", d.MaxConns)
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		return fmt.Errorf("min_conns must be between 0 and max_conns (got %d)", d.MinConns)
	}
	return nil
}

func (b *BlobConfig) validate() error {
	switch b.Driver {
	case BlobMemory:
	case BlobS3:
		if b.Bucket == "" {
			return fmt.Errorf("bucket is required for the s3 driver")
		}
		if (b.AccessKeyID == "") != (b.SecretAccessKey == "") {
			return fmt.Errorf("access_key_id and secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("unknown driver %q", b.Driver)
	}
	if b.PresignTTL <= 0 {
		return fmt.Errorf("presign_ttl must be > 0 (got %s)", b.PresignTTL)
	}
	return nil
}

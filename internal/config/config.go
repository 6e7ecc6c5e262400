package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Blob      BlobConfig      `yaml:"blob"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only used by the postgres storage driver.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"false"`
}

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
)

// StorageConfig selects where documents live.
type StorageConfig struct {
	Driver     string `yaml:"driver"      env:"STORAGE_DRIVER"      env-default:"postgres"`
	SQLitePath string `yaml:"sqlite_path" env:"STORAGE_SQLITE_PATH" env-default:"./storybible.db"`
}

// Blob drivers.
const (
	BlobMemory = "memory"
	BlobS3     = "s3"
)

// BlobConfig holds image storage settings.
type BlobConfig struct {
	Driver          string        `yaml:"driver"            env:"BLOB_DRIVER"            env-default:"memory"`
	Bucket          string        `yaml:"bucket"            env:"BLOB_S3_BUCKET"`
	Region          string        `yaml:"region"            env:"BLOB_S3_REGION"         env-default:"us-east-1"`
	Endpoint        string        `yaml:"endpoint"          env:"BLOB_S3_ENDPOINT"`
	UsePathStyle    bool          `yaml:"use_path_style"    env:"BLOB_S3_PATH_STYLE"     env-default:"false"`
	AccessKeyID     string        `yaml:"access_key_id"     env:"BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"BLOB_S3_SECRET_ACCESS_KEY"`
	PresignTTL      time.Duration `yaml:"presign_ttl"       env:"BLOB_PRESIGN_TTL"       env-default:"15m"`
}

// KnowledgeConfig tunes the knowledge-base services.
type KnowledgeConfig struct {
	// MaxRetries bounds read-modify-write attempts that lose a revision race.
	MaxRetries int `yaml:"max_retries" env:"KNOWLEDGE_MAX_RETRIES" env-default:"3"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

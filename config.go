package otter

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds settings for storage, ingestion and export.
type Config struct {
	Database DatabaseConfig `json:"database"`
	Ingest   IngestConfig   `json:"ingest"`
	Export   ExportConfig   `json:"export"`
	Logging  LoggingConfig  `json:"logging"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Database       string        `json:"database"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	SSLMode        string        `json:"sslMode"`
	MaxConnections int           `json:"maxConnections"`
	Timeout        time.Duration `json:"timeout"`
	TableName      string        `json:"tableName"`
	// UseIAM replaces Password with a DSQL auth token generated for Region.
	UseIAM bool   `json:"useIAM"`
	Region string `json:"region"`
}

// IngestConfig contains ingestion settings
type IngestConfig struct {
	ValidateSchema bool `json:"validateSchema"`
	RejectPartial  bool `json:"rejectPartial"`
	BatchSize      int  `json:"batchSize"`
	// DryRun builds and validates without writing to the repository.
	DryRun bool `json:"dryRun"`
}

// ExportConfig contains Parquet snapshot export settings
type ExportConfig struct {
	DuckDBPath    string `json:"duckdbPath"`
	MemoryLimitMB int    `json:"memoryLimitMB"`
	Threads       int    `json:"threads"`
	StagingDir    string `json:"stagingDir"`
	S3Bucket      string `json:"s3Bucket"`
	S3Prefix      string `json:"s3Prefix"`
	S3Region      string `json:"s3Region"`
	S3Endpoint    string `json:"s3Endpoint"`
	S3AccessKey   string `json:"s3AccessKey"`
	S3SecretKey   string `json:"s3SecretKey"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "otter",
			Username:       "postgres",
			SSLMode:        "disable",
			MaxConnections: 10,
			Timeout:        30 * time.Second,
			TableName:      "transients",
		},
		Ingest: IngestConfig{
			ValidateSchema: true,
			BatchSize:      100,
		},
		Export: ExportConfig{
			MemoryLimitMB: 1024,
			Threads:       2,
			S3Prefix:      "otter",
			S3Region:      "us-east-1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return &ConfigError{Field: "database.host", Message: "is required"}
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return &ConfigError{Field: "database.port", Message: "must be a valid TCP port"}
	}
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Database.TableName == "" {
		return &ConfigError{Field: "database.tableName", Message: "is required"}
	}
	if c.Database.UseIAM && c.Database.Region == "" {
		return &ConfigError{Field: "database.region", Message: "is required when useIAM is set"}
	}
	if c.Ingest.BatchSize <= 0 {
		return &ConfigError{Field: "ingest.batchSize", Message: "must be greater than 0"}
	}
	if c.Export.MemoryLimitMB < 0 {
		return &ConfigError{Field: "export.memoryLimitMB", Message: "must be >= 0"}
	}
	if c.Export.Threads < 0 {
		return &ConfigError{Field: "export.threads", Message: "must be >= 0"}
	}
	if (c.Export.S3AccessKey == "") != (c.Export.S3SecretKey == "") {
		return &ConfigError{Field: "export.s3AccessKey", Message: "access key and secret key must be set together"}
	}
	return nil
}

// DSN returns a postgres:// connection URL for the database settings.
func (d DatabaseConfig) DSN() string {
	return d.DSNWithPassword(d.Password)
}

// DSNWithPassword is DSN with password substituted, e.g. by an IAM token.
func (d DatabaseConfig) DSNWithPassword(password string) string {
	var userInfo *url.Userinfo
	if password != "" {
		userInfo = url.UserPassword(d.Username, password)
	} else {
		userInfo = url.User(d.Username)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Database,
	}

	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

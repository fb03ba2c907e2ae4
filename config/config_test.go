package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, BackendNone, cfg.MQ.Backend)
	assert.Equal(t, "ledger.events", cfg.MQ.Channel)
	assert.Equal(t, BackendNone, cfg.Storage.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/ledger.db")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("MQ_BACKEND", "rabbitmq")
	t.Setenv("RABBITMQ_PREFETCH", "3")
	t.Setenv("MINIO_USE_SSL", "not-a-bool")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, BackendRabbitMQ, cfg.MQ.Backend)
	assert.Equal(t, 3, cfg.MQ.RabbitMQ.PrefetchCount)
	assert.False(t, cfg.Storage.Minio.UseSSL)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServerPort: 8080,
			Database:   DatabaseConfig{Driver: DriverSQLite, Path: "ledger.db"},
			BcryptCost: 10,
			MQ:         MQConfig{Backend: BackendNone},
			Storage:    StorageConfig{Backend: BackendNone},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = " " }},
		{"postgres without host", func(c *Config) { c.Database = DatabaseConfig{Driver: DriverPostgres, DBName: "x"} }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }},
		{"unknown mq backend", func(c *Config) { c.MQ.Backend = "kafka" }},
		{"mq without channel", func(c *Config) { c.MQ = MQConfig{Backend: BackendMemory} }},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"port out of range", func(c *Config) { c.ServerPort = 70000 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "gcsmap.cfg.json"

// APIConfig holds backend connection settings
type APIConfig struct {
	ServerURL string        `json:"serverUrl" mapstructure:"serverUrl"`
	WSURL     string        `json:"wsUrl" mapstructure:"wsUrl"`
	Secret    string        `json:"secret" mapstructure:"secret"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

// MapConfig holds interaction and drawing settings
type MapConfig struct {
	PickRadius  float64 `json:"pickRadius" mapstructure:"pickRadius"`
	TrailLength int     `json:"trailLength" mapstructure:"trailLength"`
	HoverScale  float64 `json:"hoverScale" mapstructure:"hoverScale"`
	Ruler       bool    `json:"ruler" mapstructure:"ruler"`
	// Center is the "lon,lat" the start camera looks down on.
	Center      string  `json:"center" mapstructure:"center"`
}

// TerrainConfig holds terrain sampling settings
type TerrainConfig struct {
	CacheSize     int           `json:"cacheSize" mapstructure:"cacheSize"`
	CacheTTL      time.Duration `json:"cacheTtl" mapstructure:"cacheTtl"`
	Concurrency   int64         `json:"concurrency" mapstructure:"concurrency"`
	DefaultHeight float64       `json:"defaultHeight" mapstructure:"defaultHeight"`
}

// MemoryConfig holds in-memory journal settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite journal settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	Host         string        `json:"host" mapstructure:"host"`
	Port         string        `json:"port" mapstructure:"port"`
	Username     string        `json:"username" mapstructure:"username"`
	Password     string        `json:"password" mapstructure:"password"`
	Database     string        `json:"database" mapstructure:"database"`
	SSLMode      string        `json:"sslMode" mapstructure:"sslMode"`
	MaxOpenConns int           `json:"maxOpenConns" mapstructure:"maxOpenConns"`
	SlowQuery    time.Duration `json:"slowQuery" mapstructure:"slowQuery"`
}

// DSN returns the libpq keyword/value connection string.
func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
}

// InfluxConfig holds InfluxDB journal settings. BackupPath comes from the
// storage section, the rest from the top-level influx section.
type InfluxConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	Protocol      string `json:"protocol" mapstructure:"protocol"`
	Host          string `json:"host" mapstructure:"host"`
	Port          string `json:"port" mapstructure:"port"`
	Token         string `json:"token" mapstructure:"token"`
	Org           string `json:"org" mapstructure:"org"`
	RetentionDays int    `json:"retentionDays" mapstructure:"retentionDays"`
	BatchSize     uint   `json:"batchSize" mapstructure:"batchSize"`
	BackupPath    string `json:"backupPath" mapstructure:"backupPath"`
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type     string       `json:"type" mapstructure:"type"`
	Memory   MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Influx   InfluxConfig `json:"influx" mapstructure:"influx"`
	// Postgres is read from the top-level db section.
	Postgres DBConfig     `json:"-" mapstructure:"-"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// LogConfig holds log output settings
type LogConfig struct {
	Level          string `json:"logLevel" mapstructure:"logLevel"`
	Dir            string `json:"logsDir" mapstructure:"logsDir"`
	MaxSizeMB      int    `json:"maxSizeMb" mapstructure:"maxSizeMb"`
	MaxBackups     int    `json:"maxBackups" mapstructure:"maxBackups"`
	GraylogEnabled bool   `json:"graylogEnabled" mapstructure:"graylogEnabled"`
	GraylogAddress string `json:"graylogAddress" mapstructure:"graylogAddress"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./gcslogs")
	viper.SetDefault("log.maxSizeMb", 50)
	viper.SetDefault("log.maxBackups", 5)

	viper.SetDefault("api.serverUrl", "http://localhost:8080")
	viper.SetDefault("api.wsUrl", "ws://localhost:8080/ws")
	viper.SetDefault("api.secret", "")
	viper.SetDefault("api.timeout", "10s")

	viper.SetDefault("map.pickRadius", 25.0)
	viper.SetDefault("map.trailLength", 100)
	viper.SetDefault("map.hoverScale", 1.35)
	viper.SetDefault("map.ruler", false)
	viper.SetDefault("map.center", "")

	viper.SetDefault("terrain.cacheSize", 4096)
	viper.SetDefault("terrain.cacheTtl", "10m")
	viper.SetDefault("terrain.concurrency", 4)
	viper.SetDefault("terrain.defaultHeight", 0.0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./tracks")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./gcsmap.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.influx.backupPath", "./gcsmap_influx_backup.log.gz")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "gcsmap")
	viper.SetDefault("db.sslMode", "disable")
	viper.SetDefault("db.maxOpenConns", 10)
	viper.SetDefault("db.slowQuery", "500ms")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "gcsmap")
	viper.SetDefault("influx.retentionDays", 30)
	viper.SetDefault("influx.batchSize", 500)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "gcsmap")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.interval", "30s")
}

// GetAPIConfig returns the backend connection settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		WSURL:     viper.GetString("api.wsUrl"),
		Secret:    viper.GetString("api.secret"),
		Timeout:   viper.GetDuration("api.timeout"),
	}
}

// GetMapConfig returns the interaction and drawing settings.
func GetMapConfig() MapConfig {
	return MapConfig{
		PickRadius:  viper.GetFloat64("map.pickRadius"),
		TrailLength: viper.GetInt("map.trailLength"),
		HoverScale:  viper.GetFloat64("map.hoverScale"),
		Ruler:       viper.GetBool("map.ruler"),
		Center:      viper.GetString("map.center"),
	}
}

// GetTerrainConfig returns the terrain sampling settings.
func GetTerrainConfig() TerrainConfig {
	return TerrainConfig{
		CacheSize:     viper.GetInt("terrain.cacheSize"),
		CacheTTL:      viper.GetDuration("terrain.cacheTtl"),
		Concurrency:   viper.GetInt64("terrain.concurrency"),
		DefaultHeight: viper.GetFloat64("terrain.defaultHeight"),
	}
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Influx:   GetInfluxConfig(),
		Postgres: GetDBConfig(),
	}
}

// GetInfluxConfig returns the InfluxDB connection and backup settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:       viper.GetBool("influx.enabled"),
		Protocol:      viper.GetString("influx.protocol"),
		Host:          viper.GetString("influx.host"),
		Port:          viper.GetString("influx.port"),
		Token:         viper.GetString("influx.token"),
		Org:           viper.GetString("influx.org"),
		RetentionDays: viper.GetInt("influx.retentionDays"),
		BatchSize:     viper.GetUint("influx.batchSize"),
		BackupPath:    viper.GetString("storage.influx.backupPath"),
	}
}

// GetDBConfig returns the PostgreSQL connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:         viper.GetString("db.host"),
		Port:         viper.GetString("db.port"),
		Username:     viper.GetString("db.username"),
		Password:     viper.GetString("db.password"),
		Database:     viper.GetString("db.database"),
		SSLMode:      viper.GetString("db.sslMode"),
		MaxOpenConns: viper.GetInt("db.maxOpenConns"),
		SlowQuery:    viper.GetDuration("db.slowQuery"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetLogConfig returns the log output settings.
func GetLogConfig() LogConfig {
	return LogConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		MaxSizeMB:      viper.GetInt("log.maxSizeMb"),
		MaxBackups:     viper.GetInt("log.maxBackups"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetMonitorInterval returns how often the status report is logged.
func GetMonitorInterval() time.Duration {
	return viper.GetDuration("monitor.interval")
}

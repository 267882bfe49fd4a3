package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Ingest   IngestConfig
	Sheets   SheetsConfig
	Object   ObjectConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	MaxConcurrentTx        int64
}

type CacheConfig struct {
	// Backend is one of memory, redis or none.
	Backend       string
	TTLSeconds    int
	SweepSeconds  int
	KeyPrefix     string
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type AuthConfig struct {
	Username          string
	PasswordHash      string
	Password          string
	SessionTTLMinutes int
	CookieName        string
	CookieSecure      bool
}

type IngestConfig struct {
	// Source is one of sheets, xlsx or object.
	Source         string
	WorkbookPath   string
	BackorderTab   string
	QueueSize      int
	TimeoutSeconds int
	BatchSize      int
}

type SheetsConfig struct {
	SpreadsheetName string
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
}

type ObjectConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	Region      string
	Key         string
	UseSSL      bool
	DownloadDir string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once. Environment variables win over
// values from a local .env file.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		instance = load()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "salesboard")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("DB_MAX_CONCURRENT_TX", 4)

	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("CACHE_TTL_SECONDS", 3600)
	viper.SetDefault("CACHE_SWEEP_SECONDS", 60)
	viper.SetDefault("CACHE_KEY_PREFIX", "salesboard")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("AUTH_USERNAME", "admin")
	viper.SetDefault("AUTH_PASSWORD_HASH", "")
	viper.SetDefault("AUTH_PASSWORD", "")
	viper.SetDefault("AUTH_SESSION_TTL_MINUTES", 30)
	viper.SetDefault("AUTH_COOKIE_NAME", "salesboard_session")
	viper.SetDefault("AUTH_COOKIE_SECURE", false)

	viper.SetDefault("INGEST_SOURCE", "sheets")
	viper.SetDefault("INGEST_WORKBOOK_PATH", "./data/sales.xlsx")
	viper.SetDefault("INGEST_BACKORDER_TAB", "")
	viper.SetDefault("INGEST_QUEUE_SIZE", 8)
	viper.SetDefault("INGEST_TIMEOUT_SECONDS", 600)
	viper.SetDefault("INGEST_BATCH_SIZE", 500)

	viper.SetDefault("SHEETS_SPREADSHEET_NAME", "NINE ACCORD 판매현황")
	viper.SetDefault("SHEETS_SPREADSHEET_ID", "")
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	viper.SetDefault("GOOGLE_CREDENTIALS_JSON", "")

	viper.SetDefault("OBJECT_ENDPOINT", "")
	viper.SetDefault("OBJECT_ACCESS_KEY", "")
	viper.SetDefault("OBJECT_SECRET_KEY", "")
	viper.SetDefault("OBJECT_BUCKET", "")
	viper.SetDefault("OBJECT_REGION", "us-east-1")
	viper.SetDefault("OBJECT_KEY", "sales.xlsx")
	viper.SetDefault("OBJECT_USE_SSL", true)
	viper.SetDefault("OBJECT_DOWNLOAD_DIR", "./data/downloads")
}

func load() *Config {
	setDefaults()
	viper.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(viper.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			LogFormat:      viper.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Driver:                 strings.ToLower(viper.GetString("DB_DRIVER")),
			Host:                   viper.GetString("DB_HOST"),
			Port:                   viper.GetString("DB_PORT"),
			User:                   viper.GetString("DB_USER"),
			Password:               viper.GetString("DB_PASSWORD"),
			DBName:                 viper.GetString("DB_NAME"),
			SSLMode:                viper.GetString("DB_SSLMODE"),
			MaxOpenConns:           viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:           viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: viper.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
			MaxConcurrentTx:        viper.GetInt64("DB_MAX_CONCURRENT_TX"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(viper.GetString("CACHE_BACKEND")),
			TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			SweepSeconds:  viper.GetInt("CACHE_SWEEP_SECONDS"),
			KeyPrefix:     viper.GetString("CACHE_KEY_PREFIX"),
			RedisURL:      viper.GetString("REDIS_URL"),
			RedisHost:     viper.GetString("REDIS_HOST"),
			RedisPort:     viper.GetString("REDIS_PORT"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			Username:          viper.GetString("AUTH_USERNAME"),
			PasswordHash:      viper.GetString("AUTH_PASSWORD_HASH"),
			Password:          viper.GetString("AUTH_PASSWORD"),
			SessionTTLMinutes: viper.GetInt("AUTH_SESSION_TTL_MINUTES"),
			CookieName:        viper.GetString("AUTH_COOKIE_NAME"),
			CookieSecure:      viper.GetBool("AUTH_COOKIE_SECURE"),
		},
		Ingest: IngestConfig{
			Source:         strings.ToLower(viper.GetString("INGEST_SOURCE")),
			WorkbookPath:   viper.GetString("INGEST_WORKBOOK_PATH"),
			BackorderTab:   viper.GetString("INGEST_BACKORDER_TAB"),
			QueueSize:      viper.GetInt("INGEST_QUEUE_SIZE"),
			TimeoutSeconds: viper.GetInt("INGEST_TIMEOUT_SECONDS"),
			BatchSize:      viper.GetInt("INGEST_BATCH_SIZE"),
		},
		Sheets: SheetsConfig{
			SpreadsheetName: viper.GetString("SHEETS_SPREADSHEET_NAME"),
			SpreadsheetID:   viper.GetString("SHEETS_SPREADSHEET_ID"),
			CredentialsFile: viper.GetString("GOOGLE_CREDENTIALS_FILE"),
			CredentialsJSON: viper.GetString("GOOGLE_CREDENTIALS_JSON"),
		},
		Object: ObjectConfig{
			Endpoint:    viper.GetString("OBJECT_ENDPOINT"),
			AccessKey:   viper.GetString("OBJECT_ACCESS_KEY"),
			SecretKey:   viper.GetString("OBJECT_SECRET_KEY"),
			Bucket:      viper.GetString("OBJECT_BUCKET"),
			Region:      viper.GetString("OBJECT_REGION"),
			Key:         viper.GetString("OBJECT_KEY"),
			UseSSL:      viper.GetBool("OBJECT_USE_SSL"),
			DownloadDir: viper.GetString("OBJECT_DOWNLOAD_DIR"),
		},
	}
}

// splitList accepts both repeated values and a single comma separated env value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

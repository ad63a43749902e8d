package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション設定を表す
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Booking  BookingConfig
	Queue    QueueConfig
	Admin    AdminConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig はJWT認証設定
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// BookingConfig は予約処理の設定
type BookingConfig struct {
	// LockTimeout は行ロック取得の待機上限
	LockTimeout time.Duration
	// MaxReferenceRetries は予約番号衝突時の再生成回数
	MaxReferenceRetries int
	// QRBackfillInterval はQRコード補完ワーカーの実行間隔
	QRBackfillInterval time.Duration
}

// QueueConfig はメッセージキュー設定（URLが空なら無効）
type QueueConfig struct {
	AMQPURL string
}

// AdminConfig は初期管理者アカウント設定
type AdminConfig struct {
	Email    string
	Password string
	FullName string
}

// Load は環境変数から設定を読み込む
// .env ファイルが存在する場合は先に読み込む
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "event_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev-secret-change-me"),
			Expiry: getDurationEnv("JWT_EXPIRY", 24*time.Hour),
		},
		Booking: BookingConfig{
			LockTimeout:         getDurationEnv("BOOKING_LOCK_TIMEOUT", 3*time.Second),
			MaxReferenceRetries: getIntEnv("BOOKING_REFERENCE_RETRIES", 3),
			QRBackfillInterval:  getDurationEnv("QR_BACKFILL_INTERVAL", 5*time.Minute),
		},
		Queue: QueueConfig{
			AMQPURL: getEnv("AMQP_URL", ""),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@eventbooking.local"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
			FullName: getEnv("ADMIN_FULL_NAME", "System Administrator"),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Enabled はキュー連携が有効かを返す
func (c *QueueConfig) Enabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Env         string
	HTTPPort    string
	DBDriver    string // sqlite or postgres
	DBDSN       string
	RedisAddr   string // empty disables the current-document cache
	Compression string // nop, gzip or brotli
	CacheCron   string
}

func LoadConfig() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "4020"),
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBDSN:       getEnv("DB_DSN", ".db/legaldoc.db"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		Compression: getEnv("CONTENT_COMPRESSION", "nop"),
		CacheCron:   getEnv("CACHE_REFRESH_CRON", "@every 1m"),
	}
}

func GetDb(cnf *Config) *gorm.DB {
	var db *gorm.DB
	var err error

	switch cnf.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cnf.DBDSN), &gorm.Config{})
	default:
		if dir := filepath.Dir(cnf.DBDSN); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				logrus.Fatalf("error creating database directory: %v", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(cnf.DBDSN), &gorm.Config{})
	}
	if err != nil {
		logrus.Fatalf("error connecting to database: %v", err)
	}

	return db
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

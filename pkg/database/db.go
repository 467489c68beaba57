package database

import (
	"fmt"
	"log"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	URL      string
}

var (
	DB   *gorm.DB
	once sync.Once
)

// Connect opens the shared postgres handle. DATABASE_URL wins over the individual fields.
func Connect(cfg Config) *gorm.DB {
	once.Do(func() {
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port,
			)
		}

		db, err := gorm.Open(postgres.Open(dsn), GormConfig())
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}

		DB = db
	})

	return DB
}

// GormConfig turns driver specific constraint errors into gorm.ErrDuplicatedKey and friends.
func GormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

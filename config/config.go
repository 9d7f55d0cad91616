package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Txauuuul/nutrition-bot/models"
	"github.com/Txauuuul/nutrition-bot/utils"
)

// Config carries everything read from the environment at startup.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	GeminiAPIKey string
	GeminiModel  string
	USDAAPIKey   string

	AWSRegion string
	S3Bucket  string

	DayStartHour int
}

// Load reads .env (when present) and the process environment. Missing
// optional keys disable the feature they configure; the caller decides
// what is fatal.
func Load() Config {
	// .env is a developer convenience; in production the environment
	// is set by the deployment.
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "nutrition"),
		DBPort:     getEnv("DB_PORT", "5432"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
		USDAAPIKey:   os.Getenv("USDA_API_KEY"),

		AWSRegion: getEnv("AWS_REGION", "eu-west-1"),
		S3Bucket:  os.Getenv("S3_BUCKET"),

		DayStartHour: getEnvInt("LOGICAL_DAY_START_HOUR", utils.DefaultDayStartHour),
	}
}

// InitDB opens the Postgres connection and migrates the schema.
// TranslateError maps driver unique-violation errors onto
// gorm.ErrDuplicatedKey, which the saved-meal flow relies on.
func InitDB(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.FoodLog{},
		&models.SavedMeal{},
	)
	if err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port        string
	Origin      string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	Booking     BookingConfig
	Clinic      ClinicConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// BookingConfig holds the booking policy switches.
type BookingConfig struct {
	// AutoConfirm books appointments directly as confirmed instead of
	// waiting for an explicit clinic acknowledgment.
	AutoConfirm bool
}

// ClinicConfig describes the daily slot template: slot length and the
// morning/afternoon opening bands around the midday gap.
type ClinicConfig struct {
	SlotMinutes    int
	MorningOpen    string
	MorningClose   string
	AfternoonOpen  string
	AfternoonClose string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinic"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	autoConfirm, err := strconv.ParseBool(getEnv("BOOKING_AUTO_CONFIRM", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_AUTO_CONFIRM: %w", err)
	}

	slotMinutes, err := strconv.Atoi(getEnv("SLOT_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_MINUTES: %w", err)
	}
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("SLOT_MINUTES must be positive, got %d", slotMinutes)
	}

	// Return complete configuration
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database:    dbConfig,
		Booking: BookingConfig{
			AutoConfirm: autoConfirm,
		},
		Clinic: ClinicConfig{
			SlotMinutes:    slotMinutes,
			MorningOpen:    getEnv("CLINIC_MORNING_OPEN", "09:00"),
			MorningClose:   getEnv("CLINIC_MORNING_CLOSE", "12:00"),
			AfternoonOpen:  getEnv("CLINIC_AFTERNOON_OPEN", "14:00"),
			AfternoonClose: getEnv("CLINIC_AFTERNOON_CLOSE", "17:00"),
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

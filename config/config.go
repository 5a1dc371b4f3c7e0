package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// ClinicalTrials.gov v2 API
	RegistryBaseURL  string `envconfig:"REGISTRY_BASE_URL" default:"https://clinicaltrials.gov/api/v2"`
	RegistryPageSize int    `envconfig:"REGISTRY_PAGE_SIZE" default:"100"`

	// Wartung läuft per Cron, standardmäßig nachts (Vacuum blockiert Schreiber).
	MaintenanceSchedule string `envconfig:"MAINTENANCE_SCHEDULE" default:"0 3 * * *"`

	BackupDir           string `envconfig:"BACKUP_DIR" default:"backups"`
	BackupRetentionDays int    `envconfig:"BACKUP_RETENTION_DAYS" default:"30"`
	// Laufzeit-Schwelle, ab der der Health-Check eine Query meldet.
	SlowQueryThreshold string `envconfig:"SLOW_QUERY_THRESHOLD" default:"5 minutes"`

	// Optionales Offsite-Backup nach S3; leer lassen, um es zu deaktivieren.
	BackupS3Bucket   string `envconfig:"BACKUP_S3_BUCKET"`
	BackupS3Endpoint string `envconfig:"BACKUP_S3_ENDPOINT"`
	BackupS3Key      string `envconfig:"BACKUP_S3_ACCESS_KEY"`
	BackupS3Secret   string `envconfig:"BACKUP_S3_SECRET_KEY"`
	BackupS3Region   string `envconfig:"BACKUP_S3_REGION" default:"eu-central-1"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob Offsite-Backups konfiguriert sind.
func (c *Config) S3Enabled() bool {
	return c.BackupS3Bucket != "" && c.BackupS3Endpoint != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}

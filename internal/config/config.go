package config

import (
	"os"
	"strconv"

	"github.com/docker/go-units"
)

// Storage backends understood by STORAGE_BACKEND.
const (
	BackendGoogle = "google"
	BackendMinIO  = "minio"
)

// GalleryConfig holds the fixed parties and assets printed on every contract.
type GalleryConfig struct {
	Name               string
	City               string
	SignatureImagePath string
}

// DriveConfig holds the folder identifiers of the shared drive hierarchy.
// With the minio backend they are used as key prefixes.
type DriveConfig struct {
	PhotosFolderID          string
	ContractsFolderID       string
	SignedContractsFolderID string
}

// SheetsConfig locates the ledger spreadsheet and the range rows are appended to.
type SheetsConfig struct {
	SpreadsheetID string
	Range         string
}

// GoogleConfig holds service-account credentials for Drive and Sheets.
// Either CredentialsFile or the discrete fields must be set.
type GoogleConfig struct {
	CredentialsFile string
	ProjectID       string
	PrivateKeyID    string
	PrivateKey      string
	ClientEmail     string
	ClientID        string
	TokenURI        string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	LedgerKey string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost         string
	Port            string
	Timezone        string
	LogLevel        string
	MaxUploadBytes  int64
	ReadTimeoutSec  int
	WriteTimeoutSec int
	StorageBackend  string
	Gallery         GalleryConfig
	Drive           DriveConfig
	Sheets          SheetsConfig
	Google          GoogleConfig
	MinIO           MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	contracts := getEnv("CONTRACTS_DRIVE_FOLDER_ID", "")
	return &AppConfig{
		AppHost:         getEnv("APP_HOST", "localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		Timezone:        getEnv("APP_TIMEZONE", "America/Guadeloupe"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes:  getEnvSize("MAX_UPLOAD_SIZE", 32*units.MiB),
		ReadTimeoutSec:  getEnvInt("READ_TIMEOUT_SEC", 60),
		WriteTimeoutSec: getEnvInt("WRITE_TIMEOUT_SEC", 120),
		StorageBackend:  getEnv("STORAGE_BACKEND", BackendGoogle),
		Gallery: GalleryConfig{
			Name:               getEnv("GALLERY_NAME", "Galerie"),
			City:               getEnv("GALLERY_CITY", "Pointe-à-Pitre"),
			SignatureImagePath: getEnv("SIGNATURE_IMAGE_PATH", "signature_gerant.jpg"),
		},
		Drive: DriveConfig{
			PhotosFolderID:          getEnv("PHOTOS_DRIVE_FOLDER_ID", ""),
			ContractsFolderID:       contracts,
			SignedContractsFolderID: getEnv("SIGNED_CONTRACTS_DRIVE_FOLDER_ID", contracts),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: getEnv("SPREADSHEET_ID", ""),
			Range:         getEnv("SPREADSHEET_RANGE", "Feuille1!A:N"),
		},
		Google: GoogleConfig{
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			ProjectID:       getEnv("GOOGLE_PROJECT_ID", ""),
			PrivateKeyID:    getEnv("GOOGLE_PRIVATE_KEY_ID", ""),
			PrivateKey:      getEnv("GOOGLE_PRIVATE_KEY", ""),
			ClientEmail:     getEnv("GOOGLE_CLIENT_EMAIL", ""),
			ClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
			TokenURI:        getEnv("GOOGLE_TOKEN_URI", "https://oauth2.googleapis.com/token"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			LedgerKey: getEnv("MINIO_LEDGER_KEY", "ledger.csv"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvSize accepts human readable sizes such as "32MB" or "512KiB".
func getEnvSize(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		n, err := units.RAMInBytes(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return def
}

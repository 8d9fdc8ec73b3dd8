package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookbuddy.db"

	// DefaultBackupDir is where scheduled CSV backups are written
	DefaultBackupDir = "./backups"

	// DefaultEnvFile is loaded on startup when present
	DefaultEnvFile = ".env"
)

package logger

// LoggingConfig defines the configuration for logging.
type LoggingConfig struct {
	// Enabled routes diagnostics to the rotated file at Path instead of stderr.
	Enabled bool `yaml:"enabled"`
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Path is the log file location.
	Path string `yaml:"path"`
	// MaxSize is the rotation threshold in megabytes.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is how many rotated files to keep.
	MaxBackups int `yaml:"max_backups"`
	// MaxAge is how many days to keep rotated files.
	MaxAge int `yaml:"max_age"`
	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

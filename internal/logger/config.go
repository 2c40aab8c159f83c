package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`       // default level for all modules
	Timezone string `yaml:"timezone" json:"timezone"` // "Local", "UTC", or an IANA name
	// File enables JSON file output next to the console output when set.
	File string `yaml:"file" json:"file"`
	// ModuleLevels overrides Level per module, e.g. {"datastore.sql": "trace"}.
	ModuleLevels map[string]string `yaml:"module_levels" json:"module_levels"`
	// Quiet disables console output. File output is unaffected.
	Quiet bool `yaml:"quiet" json:"quiet"`
}

// DefaultLogLevel is used when LoggingConfig.Level is empty.
const DefaultLogLevel = "info"

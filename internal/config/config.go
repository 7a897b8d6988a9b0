package config

// Config represents the complete typelink configuration.
// It can be loaded from .typelink/config.yml with environment variable overrides.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Select   SelectConfig   `yaml:"select" mapstructure:"select"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which source files are analyzed.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// SelectConfig defines which declarations enter the model.
type SelectConfig struct {
	Attribute string `yaml:"attribute" mapstructure:"attribute"` // marker attribute, e.g. "typelink"
	All       bool   `yaml:"all" mapstructure:"all"`             // take every item, annotated or not
}

// AnalysisConfig tunes an extraction run.
type AnalysisConfig struct {
	FailFast  bool `yaml:"fail_fast" mapstructure:"fail_fast"`   // abort on the first extraction error
	CacheSize int  `yaml:"cache_size" mapstructure:"cache_size"` // parsed-file cache entries, 0 disables
}

// OutputConfig defines where results are written.
type OutputConfig struct {
	Model    string `yaml:"model" mapstructure:"model"`       // JSON model document
	Database string `yaml:"database" mapstructure:"database"` // SQLite snapshot, empty for none
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{"**/*.rs"},
			Ignore: []string{
				"target/**",
				".git/**",
				"vendor/**",
			},
		},
		Select: SelectConfig{
			Attribute: "typelink",
			All:       false,
		},
		Analysis: AnalysisConfig{
			FailFast:  false,
			CacheSize: 1024,
		},
		Output: OutputConfig{
			Model:    ".typelink/model.json",
			Database: "",
		},
	}
}

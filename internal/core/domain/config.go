package domain

// Strategy names accepted in configuration and on the command line.
const (
	StrategyConcurrent = "concurrent"
	StrategySerial     = "serial"
	// StrategyUnordered launches every module at once and ignores the graph.
	StrategyUnordered = "unordered"
)

// Package managers the format command can drive.
var PackageManagers = []string{"npm", "yarn", "pnpm", "bun"}

// Config holds the workspace settings read from ftool.yaml.
type Config struct {
	Strategy  string
	KeepGoing bool
	Format    FormatConfig
}

// FormatConfig configures the format command.
type FormatConfig struct {
	PackageManager string
	Exclude        []string
}

// DefaultConfig returns the settings used when no configuration file exists.
func DefaultConfig() *Config {
	return &Config{
		Strategy: StrategyConcurrent,
		Format: FormatConfig{
			PackageManager: "yarn",
			Exclude:        append([]string(nil), DefaultFormatExclude...),
		},
	}
}

package config

// Filename is the configuration file looked up at the workspace root.
const Filename = "ftool.yaml"

// Configfile represents the structure of the ftool.yaml configuration file.
type Configfile struct {
	Strategy  string    `yaml:"strategy"`
	KeepGoing *bool     `yaml:"keepGoing"`
	Format    FormatDTO `yaml:"format"`
}

// FormatDTO represents the format section of the configuration.
type FormatDTO struct {
	PackageManager string   `yaml:"packageManager"`
	Exclude        []string `yaml:"exclude"`
}

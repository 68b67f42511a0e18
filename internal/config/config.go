package config

// Config represents the complete ctxpack configuration.
// It can be loaded from .ctxpack/config.yml with environment variable overrides.
type Config struct {
	Marker MarkerConfig `yaml:"marker" mapstructure:"marker"`
	Paths  PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Scope  ScopeConfig  `yaml:"scope" mapstructure:"scope"`
	Budget BudgetConfig `yaml:"budget" mapstructure:"budget"`
	Diff   DiffConfig   `yaml:"diff" mapstructure:"diff"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// MarkerConfig defines the sentinels recognised in source files.
type MarkerConfig struct {
	Instruction string   `yaml:"instruction" mapstructure:"instruction"`   // comment sentinel that marks the instruction line
	RegionOpen  []string `yaml:"region_open" mapstructure:"region_open"`   // spellings of the "begin visible region" line
	RegionClose []string `yaml:"region_close" mapstructure:"region_close"` // spellings of the "end visible region" line
}

// PathsConfig defines which files are scanned and which are ignored.
type PathsConfig struct {
	Extensions []string `yaml:"extensions" mapstructure:"extensions"` // source extensions with leading dot
	Ignore     []string `yaml:"ignore" mapstructure:"ignore"`         // glob patterns relative to the scanned root
}

// ScopeConfig controls how the search scope is resolved.
type ScopeConfig struct {
	PackageMarkers []string `yaml:"package_markers" mapstructure:"package_markers"` // files that mark a package boundary
	WholeRepo      bool     `yaml:"whole_repo" mapstructure:"whole_repo"`           // always search from the repository root
	References     bool     `yaml:"references" mapstructure:"references"`           // also pull in files referencing the enclosing type
}

// BudgetConfig holds the character limits applied to the bundle.
// Zero disables the corresponding limit.
type BudgetConfig struct {
	Limit         int `yaml:"limit" mapstructure:"limit"`                   // hard ceiling used for packing
	WarnThreshold int `yaml:"warn_threshold" mapstructure:"warn_threshold"` // advisory threshold used for exclusion hints
}

// DiffConfig enables diff augmentation against a baseline branch.
type DiffConfig struct {
	Branch string `yaml:"branch" mapstructure:"branch"`
}

// OutputConfig controls bundle rendering and delivery.
type OutputConfig struct {
	Regions   bool   `yaml:"regions" mapstructure:"regions"`     // apply region filtering to context files
	Trailer   string `yaml:"trailer" mapstructure:"trailer"`     // sentence appended once at the end of the bundle
	Clipboard bool   `yaml:"clipboard" mapstructure:"clipboard"` // copy the bundle to the system clipboard
}

// DefaultTrailer is appended to every bundle unless overridden.
const DefaultTrailer = "Carry out the instruction marked in the first file above, and reply with the complete updated code of every file you change."

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Marker: MarkerConfig{
			Instruction: "// TODO: ai",
			RegionOpen:  []string{"// v", "//v"},
			RegionClose: []string{"// ^", "//^"},
		},
		Paths: PathsConfig{
			Extensions: []string{
				".swift",
				".go",
				".ts",
				".tsx",
				".js",
				".jsx",
				".kt",
				".java",
				".rs",
				".c",
				".cc",
				".cpp",
				".h",
				".hpp",
				".m",
				".mm",
				".cs",
				".py",
				".rb",
				".php",
			},
			Ignore: []string{
				"**/.git/**",
				"**/.build/**",
				"**/.swiftpm/**",
				"**/DerivedData/**",
				"**/Pods/**",
				"**/Carthage/**",
				"**/node_modules/**",
				"**/vendor/**",
				"**/build/**",
				"**/dist/**",
				"**/target/**",
				"**/__pycache__/**",
			},
		},
		Scope: ScopeConfig{
			PackageMarkers: []string{
				"Package.swift",
				"go.mod",
				"package.json",
				"Cargo.toml",
				"pyproject.toml",
				"build.gradle",
				"pom.xml",
			},
			WholeRepo:  false,
			References: false,
		},
		Budget: BudgetConfig{
			Limit:         0,
			WarnThreshold: 100000,
		},
		Diff: DiffConfig{
			Branch: "",
		},
		Output: OutputConfig{
			Regions:   true,
			Trailer:   DefaultTrailer,
			Clipboard: false,
		},
	}
}

package dircast

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// Config represents the dcast configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default   string // strong digest algorithm
	ChunkSize string // read size, plain bytes or with K/M suffix
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // Default output format: human, json, fdupes
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug string // Default debug flags (comma-separated)
}

// SymlinkConfig represents symlink handling configuration
type SymlinkConfig struct {
	Mode string // nofollow, follow, contained, skip
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers int // Number of concurrent hash workers (default: 4)
}

// CodecConfig represents cast file encoding configuration
type CodecConfig struct {
	Compression string // xz, lzma, zstd
}

// DuplicatesConfig represents duplicate search configuration
type DuplicatesConfig struct {
	IgnoreEmpty bool `ini:"ignore_empty"`
}

// IgnoreConfig names the ignore-pattern file applied to builds
type IgnoreConfig struct {
	File string
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Symlink     *SymlinkConfig
	Performance *PerformanceConfig
	Codec       *CodecConfig
	Duplicates  *DuplicatesConfig
	Ignore      *IgnoreConfig
}

// configDefaults lists every section/key with its default value, in file order
var configDefaults = []struct {
	section, key, value string
}{
	{"filehash", "default", DefaultDigest},
	{"filehash", "chunk_size", "2047"},
	{"output", "format", FormatHuman},
	{"verbose", "level", "0"},
	{"verbose", "debug", ""},
	{"symlink", "mode", SymlinkNoFollow},
	{"performance", "hash_workers", "4"},
	{"codec", "compression", string(CompressionXZ)},
	{"duplicates", "ignore_empty", "true"},
	{"ignore", "file", ""},
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/dcast/config, falling back to ~/.config
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dcast", "config")
	}
	return filepath.Join(".dcast", "config")
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults without creating anything on disk.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		configPath: configPath,
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
	} else {
		iniFile, err := ini.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.ini = iniFile
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	for _, d := range configDefaults {
		section, err := c.ini.NewSection(d.section)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", d.section, err)
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// Path returns the file the configuration is loaded from and saved to
func (c *Config) Path() string {
	return c.configPath
}

// lookup returns the value of section.key or fallback when absent
func (c *Config) lookup(section, key, fallback string) string {
	if c.ini.HasSection(section) {
		s := c.ini.Section(section)
		if s.HasKey(key) {
			return s.Key(key).String()
		}
	}
	return fallback
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	return &HashConfig{
		Default:   c.lookup("filehash", "default", DefaultDigest),
		ChunkSize: c.lookup("filehash", "chunk_size", "2047"),
	}
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	return &OutputConfig{Format: c.lookup("output", "format", FormatHuman)}
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{
		Level: 0,  // fallback default
		Debug: "", // fallback default
	}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetSymlinkConfig returns the symlink configuration
func (c *Config) GetSymlinkConfig() *SymlinkConfig {
	return &SymlinkConfig{Mode: c.lookup("symlink", "mode", SymlinkNoFollow)}
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashWorkers: DefaultHashWorkers,
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_workers") {
			if workers, err := section.Key("hash_workers").Int(); err == nil {
				performanceConfig.HashWorkers = workers
			}
		}
	}

	return performanceConfig
}

// GetCodecConfig returns the cast encoding configuration
func (c *Config) GetCodecConfig() *CodecConfig {
	return &CodecConfig{Compression: c.lookup("codec", "compression", string(CompressionXZ))}
}

// GetDuplicatesConfig returns the duplicate search configuration
func (c *Config) GetDuplicatesConfig() *DuplicatesConfig {
	dupConfig := &DuplicatesConfig{IgnoreEmpty: true}

	if c.ini.HasSection("duplicates") {
		section := c.ini.Section("duplicates")
		if section.HasKey("ignore_empty") {
			if ignoreEmpty, err := section.Key("ignore_empty").Bool(); err == nil {
				dupConfig.IgnoreEmpty = ignoreEmpty
			}
		}
	}

	return dupConfig
}

// GetIgnoreConfig returns the ignore file configuration
func (c *Config) GetIgnoreConfig() *IgnoreConfig {
	return &IgnoreConfig{File: c.lookup("ignore", "file", "")}
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Symlink:     c.GetSymlinkConfig(),
		Performance: c.GetPerformanceConfig(),
		Codec:       c.GetCodecConfig(),
		Duplicates:  c.GetDuplicatesConfig(),
		Ignore:      c.GetIgnoreConfig(),
	}
}

// BuildOptions assembles builder options from the configuration. The ignore
// file, when configured, is loaded here.
func (c *Config) BuildOptions() (BuildOptions, error) {
	all := c.GetAllConfig()
	var opts BuildOptions

	chunkSize, err := ParseHumanSize(all.Hash.ChunkSize)
	if err != nil {
		return opts, fmt.Errorf("filehash.chunk_size: %w", err)
	}
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return opts, err
	}
	if err := ValidateSymlinkMode(all.Symlink.Mode); err != nil {
		return opts, err
	}
	if err := ValidateHashWorkers(all.Performance.HashWorkers); err != nil {
		return opts, err
	}

	opts.Hash = HashOptions{Algorithm: all.Hash.Default, ChunkSize: chunkSize}
	opts.Workers = all.Performance.HashWorkers
	opts.SymlinkMode = strings.ToLower(all.Symlink.Mode)

	if all.Ignore.File != "" {
		matcher, err := LoadIgnoreFile(all.Ignore.File)
		if err != nil {
			return opts, err
		}
		opts.Ignore = matcher
	}
	return opts, nil
}

// Compression returns the configured cast compression
func (c *Config) Compression() (Compression, error) {
	name := c.GetCodecConfig().Compression
	comp, ok := CompressionFromName(name)
	if !ok {
		return "", fmt.Errorf("unsupported compression: %s (supported: xz, lzma, zstd)", name)
	}
	return comp, nil
}

// Set validates and stores section.key = value in memory
func (c *Config) Set(key, value string) error {
	section, name, ok := strings.Cut(key, ".")
	if !ok {
		return fmt.Errorf("invalid key '%s', expected 'section.key'", key)
	}
	if !isKnownKey(section, name) {
		return fmt.Errorf("unknown configuration key '%s'", key)
	}
	if err := validateValue(section, name, value); err != nil {
		return err
	}
	c.ini.Section(section).Key(name).SetValue(value)
	return nil
}

// Save saves the configuration to disk, creating the parent directory
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return c.ini.SaveTo(c.configPath)
}

// WriteTo writes the configuration in INI syntax
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.ini.WriteTo(w)
}

// overrideKeys maps the short override names to their section.key
var overrideKeys = map[string]string{
	"default":      "filehash.default",
	"chunk_size":   "filehash.chunk_size",
	"format":       "output.format",
	"level":        "verbose.level",
	"debug":        "verbose.debug",
	"mode":         "symlink.mode",
	"hash_workers": "performance.hash_workers",
	"compression":  "codec.compression",
	"ignore_empty": "duplicates.ignore_empty",
	"ignore_file":  "ignore.file",
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "format:json", "level:2", "debug:scan"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		full, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s' (supported: default, chunk_size, format, level, debug, mode, hash_workers, compression, ignore_empty, ignore_file)", key)
		}
		if err := c.Set(full, value); err != nil {
			return err
		}
	}

	return nil
}

func isKnownKey(section, key string) bool {
	for _, d := range configDefaults {
		if d.section == section && d.key == key {
			return true
		}
	}
	return false
}

// validateValue applies the per-key validator
func validateValue(section, key, value string) error {
	switch section + "." + key {
	case "filehash.default":
		return ValidateHashAlgorithm(value)
	case "filehash.chunk_size":
		size, err := ParseHumanSize(value)
		if err != nil {
			return err
		}
		if size > MaxChunkSize {
			return fmt.Errorf("chunk size too large: %s", value)
		}
	case "output.format":
		return ValidateOutputFormat(value)
	case "verbose.level":
		var level int
		if _, err := fmt.Sscanf(value, "%d", &level); err != nil {
			return fmt.Errorf("invalid verbose level: %s", value)
		}
		return ValidateVerboseLevel(level)
	case "verbose.debug":
		return ValidateDebugFlags(value)
	case "symlink.mode":
		return ValidateSymlinkMode(value)
	case "performance.hash_workers":
		var workers int
		if _, err := fmt.Sscanf(value, "%d", &workers); err != nil {
			return fmt.Errorf("invalid hash workers: %s", value)
		}
		return ValidateHashWorkers(workers)
	case "codec.compression":
		if _, ok := CompressionFromName(value); !ok {
			return fmt.Errorf("unsupported compression: %s (supported: xz, lzma, zstd)", value)
		}
	case "duplicates.ignore_empty":
		switch strings.ToLower(value) {
		case "true", "false", "yes", "no", "on", "off", "1", "0":
		default:
			return fmt.Errorf("invalid boolean: %s", value)
		}
	}
	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, err := GetHashAlgorithm(algorithm); err != nil {
		return fmt.Errorf("%w (supported: %s)", err, strings.Join(SupportedHashAlgorithms(), ", "))
	}
	return nil
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatJSON, FormatFdupes:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, json, fdupes)", format)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateDebugFlags checks that every comma-separated flag is known
func ValidateDebugFlags(debug string) error {
	for _, flag := range strings.Split(debug, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if !isKnownDebugFlag(flag) {
			return fmt.Errorf("unknown debug flag: %s (supported: %s)", flag, strings.Join(DebugFlags, ", "))
		}
	}
	return nil
}

// ValidateSymlinkMode validates that a symlink mode is supported
func ValidateSymlinkMode(mode string) error {
	switch strings.ToLower(mode) {
	case SymlinkNoFollow, SymlinkFollow, SymlinkContained, SymlinkSkip:
		return nil
	default:
		return fmt.Errorf("unsupported symlink mode: %s (supported: nofollow, follow, contained, skip)", mode)
	}
}

// ValidateHashWorkers validates that the hash worker count is reasonable
func ValidateHashWorkers(workers int) error {
	if workers < 1 {
		return fmt.Errorf("hash workers must be at least 1, got: %d", workers)
	}
	if workers > 64 {
		return fmt.Errorf("hash workers should not exceed 64, got: %d", workers)
	}
	return nil
}

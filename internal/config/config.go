// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/kyber/internal/core"
	"firestige.xyz/kyber/internal/muxer"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `kyber:` root key in YAML.
type GlobalConfig struct {
	Format       FormatConfig      `mapstructure:"format"`
	Streams      []StreamConfig    `mapstructure:"streams"`
	Input        InputConfig       `mapstructure:"input"`
	Output       OutputConfig      `mapstructure:"output"`
	OnWriteError string            `mapstructure:"on_write_error"` // abort | skip
	Diagnostics  DiagnosticsConfig `mapstructure:"diagnostics"`
	Log          LogConfig         `mapstructure:"log"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
}

// Write error policies.
const (
	OnWriteErrorAbort = "abort"
	OnWriteErrorSkip  = "skip"
)

// ─── Container ───

// FormatConfig selects the output format. Name picks a built-in format;
// non-empty codec fields override its audio/video requirement slots
// ("none" clears a slot).
type FormatConfig struct {
	Name       string `mapstructure:"name"`
	AudioCodec string `mapstructure:"audio_codec"`
	VideoCodec string `mapstructure:"video_codec"`
}

// StreamConfig declares one elementary stream on the container.
type StreamConfig struct {
	MediaType string `mapstructure:"media_type"` // video | audio | data | subtitle
	Codec     string `mapstructure:"codec"`
}

// ─── Input ───

// InputConfig configures the packet source.
type InputConfig struct {
	Type        string `mapstructure:"type"` // "pcap"
	Path        string `mapstructure:"path"`
	UDPPort     uint16 `mapstructure:"udp_port"`     // 0 = any
	PayloadType int    `mapstructure:"payload_type"` // -1 = any RTP payload type
	Timestamp   string `mapstructure:"timestamp"`    // rtp | capture
}

// ─── Output ───

// OutputConfig configures the byte sink. Options are sink specific and
// decoded by the sink package.
type OutputConfig struct {
	Type    string         `mapstructure:"type"` // file | console | udp
	Options map[string]any `mapstructure:"options"`
}

// ─── Diagnostics ───

// DiagnosticsConfig controls the per-packet diagnostic line.
type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"` // stderr | stdout | file path
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `kyber: ...`.
type configRoot struct {
	Kyber GlobalConfig `mapstructure:"kyber"`
}

// Load loads configuration from file.
// The YAML file uses `kyber:` as root key; env vars use the KYBER_ prefix
// (e.g. KYBER_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(v)
}

// Default returns the configuration used when no config file is given.
// Environment overrides still apply.
func Default() (*GlobalConfig, error) {
	return decode(viper.New())
}

func decode(v *viper.Viper) (*GlobalConfig, error) {
	// The `kyber.` key prefix maps to `KYBER_` via the key replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Kyber

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "kyber." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Container defaults
	v.SetDefault("kyber.format.name", "kyber")
	v.SetDefault("kyber.format.audio_codec", "")
	v.SetDefault("kyber.format.video_codec", "")
	v.SetDefault("kyber.on_write_error", OnWriteErrorAbort)

	// Input defaults
	v.SetDefault("kyber.input.type", "pcap")
	v.SetDefault("kyber.input.payload_type", -1)
	v.SetDefault("kyber.input.timestamp", "rtp")

	// Output defaults
	v.SetDefault("kyber.output.type", "file")

	// Diagnostics defaults
	v.SetDefault("kyber.diagnostics.enabled", true)
	v.SetDefault("kyber.diagnostics.output", "stderr")

	// Log defaults
	v.SetDefault("kyber.log.level", "info")
	v.SetDefault("kyber.log.format", "text")
	v.SetDefault("kyber.log.outputs.file.enabled", false)
	v.SetDefault("kyber.log.outputs.file.path", "/var/log/kyber/kyber.log")
	v.SetDefault("kyber.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("kyber.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("kyber.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("kyber.log.outputs.file.rotation.compress", true)

	// Metrics defaults
	v.SetDefault("kyber.metrics.enabled", false)
	v.SetDefault("kyber.metrics.listen", ":9091")
	v.SetDefault("kyber.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level: %s (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: invalid log format: %s (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	// ── Write error policy ──
	if cfg.OnWriteError != OnWriteErrorAbort && cfg.OnWriteError != OnWriteErrorSkip {
		return fmt.Errorf("%w: invalid on_write_error: %s (must be abort/skip)", core.ErrConfigInvalid, cfg.OnWriteError)
	}

	// ── Streams ──
	// A single video stream is assumed when none is declared; an explicit
	// list is taken as-is so the container can reject it.
	if len(cfg.Streams) == 0 {
		cfg.Streams = []StreamConfig{{MediaType: "video", Codec: "h264"}}
	}
	for i, s := range cfg.Streams {
		if _, err := core.ParseMediaType(s.MediaType); err != nil {
			return fmt.Errorf("streams[%d]: %w", i, err)
		}
	}

	// ── Input ──
	if cfg.Input.Timestamp != "rtp" && cfg.Input.Timestamp != "capture" {
		return fmt.Errorf("%w: invalid input.timestamp: %s (must be rtp/capture)", core.ErrConfigInvalid, cfg.Input.Timestamp)
	}
	if cfg.Input.PayloadType > 127 {
		return fmt.Errorf("%w: input.payload_type %d out of range", core.ErrConfigInvalid, cfg.Input.PayloadType)
	}

	// ── Output ──
	// A console sink owns stdout; diagnostics there would corrupt the stream.
	if strings.EqualFold(cfg.Output.Type, "console") && cfg.Diagnostics.Enabled && cfg.Diagnostics.Output == "stdout" {
		return fmt.Errorf("%w: diagnostics.output cannot be stdout with a console output", core.ErrConfigInvalid)
	}

	return nil
}

// CoreStreams converts the declared streams into core descriptors.
func (cfg *GlobalConfig) CoreStreams() ([]core.Stream, error) {
	streams := make([]core.Stream, 0, len(cfg.Streams))
	for i, s := range cfg.Streams {
		mt, err := core.ParseMediaType(s.MediaType)
		if err != nil {
			return nil, fmt.Errorf("streams[%d]: %w", i, err)
		}
		streams = append(streams, core.Stream{
			Index:     i,
			MediaType: mt,
			Codec:     core.ParseCodecID(s.Codec),
		})
	}
	return streams, nil
}

// ContainerFormat resolves the configured format: the named built-in, with
// any codec slot overrides applied.
func (cfg *GlobalConfig) ContainerFormat() (muxer.Format, error) {
	f, err := muxer.LookupFormat(cfg.Format.Name)
	if err != nil {
		return muxer.Format{}, err
	}
	if cfg.Format.AudioCodec != "" {
		f.AudioCodec = core.ParseCodecID(cfg.Format.AudioCodec)
	}
	if cfg.Format.VideoCodec != "" {
		f.VideoCodec = core.ParseCodecID(cfg.Format.VideoCodec)
	}
	return f, nil
}

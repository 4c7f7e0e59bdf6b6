package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/muxer"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured container without writing anything",
	Long: `Build the container described by the configuration and run stream
validation on it. The resolved format and streams are printed as YAML.

Exits non-zero when the container would be rejected.

Examples:
  kyber validate -c kyber.yml
  KYBER_FORMAT_VIDEO_CODEC=none kyber validate`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("invalid configuration", err)
		}
		if err := runValidate(cfg, os.Stdout); err != nil {
			exitWithError("container rejected", err)
		}
	},
}

type formatReport struct {
	Name       string `yaml:"name"`
	LongName   string `yaml:"long_name,omitempty"`
	Extensions string `yaml:"extensions,omitempty"`
	AudioCodec string `yaml:"audio_codec"`
	VideoCodec string `yaml:"video_codec"`
}

type streamReport struct {
	Index     int    `yaml:"index"`
	MediaType string `yaml:"media_type"`
	Codec     string `yaml:"codec"`
}

type validateReport struct {
	Format            formatReport   `yaml:"format"`
	ExpectedMediaType string         `yaml:"expected_media_type"`
	Streams           []streamReport `yaml:"streams"`
	Valid             bool           `yaml:"valid"`
	Error             string         `yaml:"error,omitempty"`
}

// runValidate validates the configured container and writes a YAML report
// to w. The validation error, if any, is returned after the report.
func runValidate(cfg *config.GlobalConfig, w io.Writer) error {
	format, err := cfg.ContainerFormat()
	if err != nil {
		return err
	}
	streams, err := cfg.CoreStreams()
	if err != nil {
		return err
	}

	// Validation diagnostics are already in the report.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	container := muxer.NewContainer(format, streams, io.Discard, muxer.WithLogger(quiet))
	verr := container.Validate()

	report := validateReport{
		Format: formatReport{
			Name:       format.Name,
			LongName:   format.LongName,
			Extensions: format.Extensions,
			AudioCodec: format.AudioCodec.String(),
			VideoCodec: format.VideoCodec.String(),
		},
		ExpectedMediaType: "any",
		Valid:             verr == nil,
	}
	if mt, ok := format.ExpectedMediaType(); ok {
		report.ExpectedMediaType = mt.String()
	}
	for _, s := range container.Streams() {
		report.Streams = append(report.Streams, streamReport{
			Index:     s.Index,
			MediaType: s.MediaType.String(),
			Codec:     s.Codec.String(),
		})
	}
	if verr != nil {
		report.Error = verr.Error()
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return verr
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/log"
	"firestige.xyz/kyber/internal/metrics"
	"firestige.xyz/kyber/internal/muxer"
	"firestige.xyz/kyber/internal/pipeline"
	"firestige.xyz/kyber/internal/sink"
	"firestige.xyz/kyber/internal/source"
)

var muxCmd = &cobra.Command{
	Use:   "mux",
	Short: "Write a capture's packets into a kyber container",
	Long: `Read RTP packets from a capture file and write them as a kyber container.

The container is validated before any packet is read: it must declare
exactly one stream of the media type the format requires.

Examples:
  kyber mux -c kyber.yml
  kyber mux -i camera.pcap -o camera.kyber
  kyber mux -i camera.pcap -o - | nc -u 10.0.0.5 5000`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("invalid configuration", err)
		}
		applyMuxFlags(cfg)

		if err := log.Init(cfg.Log); err != nil {
			exitWithError("failed to initialize logging", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runMux(ctx, cfg); err != nil {
			slog.Error("mux failed", "error", err)
			os.Exit(1)
		}
	},
}

var (
	muxInput  string
	muxOutput string
)

func init() {
	muxCmd.Flags().StringVarP(&muxInput, "input", "i", "",
		"capture file to read (overrides input.path)")
	muxCmd.Flags().StringVarP(&muxOutput, "output", "o", "",
		"output file, or - for stdout (overrides output)")
}

// applyMuxFlags folds command-line overrides into cfg.
func applyMuxFlags(cfg *config.GlobalConfig) {
	if muxInput != "" {
		cfg.Input.Path = muxInput
	}
	switch muxOutput {
	case "":
	case "-":
		cfg.Output = config.OutputConfig{Type: sink.TypeConsole}
		if cfg.Diagnostics.Output == "stdout" {
			cfg.Diagnostics.Output = "stderr"
		}
	default:
		cfg.Output = config.OutputConfig{
			Type:    sink.TypeFile,
			Options: map[string]any{"path": muxOutput},
		}
	}
}

// runMux wires source, sink and container from cfg and runs the pipeline,
// alongside the metrics server when enabled.
func runMux(ctx context.Context, cfg *config.GlobalConfig) (err error) {
	logger := slog.Default().With("session", uuid.NewString())

	format, err := cfg.ContainerFormat()
	if err != nil {
		return err
	}
	streams, err := cfg.CoreStreams()
	if err != nil {
		return err
	}

	src, err := source.New(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	out, err := sink.New(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close output: %w", cerr))
		}
	}()

	opts := []muxer.Option{muxer.WithLogger(logger)}
	if cfg.Diagnostics.Enabled {
		pl, err := log.NewPacketLogger(cfg.Diagnostics.Output)
		if err != nil {
			return err
		}
		defer pl.Close()
		opts = append(opts, muxer.WithPacketLog(pl))
	}

	container := muxer.NewContainer(format, streams, out, opts...)
	p := pipeline.New(pipeline.Config{
		Source:       src,
		Muxer:        container,
		Format:       format.Name,
		OnWriteError: cfg.OnWriteError,
		Logger:       logger,
	})

	logger.Info("mux starting",
		"format", format.Name,
		"input", cfg.Input.Path,
		"output", cfg.Output.Type)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			select {
			case <-done:
			case <-gctx.Done():
			}
			return srv.Stop(context.Background())
		})
	}

	g.Go(func() error {
		defer close(done)
		return p.Run(gctx)
	})

	return g.Wait()
}

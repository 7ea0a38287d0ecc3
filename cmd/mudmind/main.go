// Command mudmind connects an LLM agent to a MUD and lets it play.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"mudmind/internal/character"
	"mudmind/internal/config"
	"mudmind/internal/coordinator"
	"mudmind/internal/llm"
	"mudmind/internal/mud"
	"mudmind/internal/store"
	"mudmind/internal/ux"
)

var (
	flagConfig    string
	flagCharacter string
	flagApprove   bool
)

func main() {
	root := &cobra.Command{
		Use:           "mudmind",
		Short:         "An autonomous LLM agent that plays a MUD",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath(), "path to config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the game and start playing",
		RunE:  runSession,
	}
	runCmd.Flags().StringVar(&flagCharacter, "character", "", "resume a stored character by name")
	runCmd.Flags().BoolVar(&flagApprove, "approve", false, "require human approval for every directive")
	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "character [name]",
		Short: "Show a stored character record",
		Args:  cobra.ExactArgs(1),
		RunE:  showCharacter,
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if !cfg.JSON {
		zc = zap.NewDevelopmentConfig()
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func runSession(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	client, err := llm.New(llm.Provider(cfg.LLM.Provider), llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.TimeoutDuration(),
	})
	if err != nil {
		return err
	}

	chars, err := store.NewSQLiteStore(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("open character store: %w", err)
	}
	defer chars.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *character.Record
	if flagCharacter != "" {
		rec, err = chars.Load(ctx, flagCharacter)
		if err != nil {
			if !errors.Is(err, character.ErrNotFound) {
				return fmt.Errorf("load character: %w", err)
			}
			logger.Warn("character not found, the agent will create one",
				zap.String("name", flagCharacter))
		}
	}

	transport, err := mud.Dial(ctx, cfg.Session.Addr(), logger.Named("mud"))
	if err != nil {
		return err
	}
	defer transport.Close()

	console := ux.NewConsole(os.Stdout, os.Stdin)
	opts := coordinator.Options{
		TokenBudget: cfg.Transcript.TokenBudget,
		Renderer:    console,
	}
	if flagApprove || cfg.Approval.Required {
		opts.Approver = console
	}
	coord := coordinator.New(client, transport, chars, rec, logger.Named("coordinator"), opts)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case chunk, open := <-transport.Chunks():
				if !open {
					return fmt.Errorf("game connection closed")
				}
				coord.HandleSessionText(ctx, chunk)
			}
		}
	})

	err = g.Wait()
	coord.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func showCharacter(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	chars, err := store.NewSQLiteStore(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("open character store: %w", err)
	}
	defer chars.Close()

	rec, err := chars.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s — level %d %s %s\n", rec.Name, rec.Level, rec.Race, rec.Class)
	if rec.Location != "" {
		fmt.Printf("last seen: %s\n", rec.Location)
	}
	fmt.Printf("rooms mapped: %d\n", len(rec.Graph.Rooms))
	if len(rec.Paths) > 0 {
		fmt.Println("paths:")
		for _, p := range rec.Paths {
			fmt.Printf("  %s -> %s (%d steps)\n", p.From, p.To, len(p.Directions))
		}
	}
	if len(rec.Memories) > 0 {
		fmt.Println("memories:")
		for _, m := range rec.Memories {
			fmt.Printf("  [%s] %s\n", m.Type, m.Summary)
		}
	}
	return nil
}

package main

import (
	"context"
	"os"
	"strings"

	errors "github.com/Laisky/errors/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgomes/emofind/internal/clipboard"
	"github.com/mgomes/emofind/internal/config"
	"github.com/mgomes/emofind/internal/emojiapi"
	"github.com/mgomes/emofind/internal/logging"
	"github.com/mgomes/emofind/internal/search"
	"github.com/mgomes/emofind/internal/tui"
)

var (
	flagBaseURL string
	flagTopK    int
)

var rootCmd = &cobra.Command{
	Use:   "efind [query]",
	Short: "Semantic emoji search in the terminal",
	Long: `Search emojis by meaning against an emoji search service and copy
the one you pick to the clipboard.

Keyboard shortcuts:
  Enter       Search / copy the selected emoji
  Tab         Move between the search box and the results
  ←↑↓→ hjkl   Navigate results
  Esc         Clear the search
  Ctrl+C      Quit`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		return runSearch(cmd.Context(), env, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "search service URL (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagTopK, "top-k", 0, "results per search (overrides config)")
}

// env is what every subcommand needs: the effective config, a logger and a
// service client.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	client *emojiapi.Client
}

func (e *env) close() {
	_ = e.log.Sync()
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	return newEnv(cmd, true)
}

// newEnv builds the env. setup skips validation so it can repair a broken
// config file.
func newEnv(cmd *cobra.Command, validate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if flags.Changed("top-k") {
		cfg.TopK = flagTopK
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid config")
		}
	}

	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "setup logger")
	}
	log.Debug("config loaded",
		zap.String("base_url", cfg.BaseURL),
		zap.Int("top_k", cfg.TopK),
		zap.Duration("timeout", cfg.Timeout()))

	return &env{
		cfg:    cfg,
		log:    log,
		client: emojiapi.NewClient(cfg.BaseURL, cfg.Timeout()),
	}, nil
}

func runSearch(ctx context.Context, e *env, query string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	searcher := search.New(e.client, e.cfg.TopK)
	// OSC52 goes to stderr so it reaches the terminal even when stdout is piped
	clip := clipboard.NewSystem(os.Stderr, clipboard.WithLogger(e.log))

	model := tui.NewSearchModel(searcher, clip,
		tui.WithLogger(e.log),
		tui.WithContext(ctx),
		tui.WithInitialQuery(query),
	)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "run tui")
	}
	return nil
}

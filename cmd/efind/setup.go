package main

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgomes/emofind/internal/config"
	"github.com/mgomes/emofind/internal/emojiapi"
	"github.com/mgomes/emofind/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the search service address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer env.close()

		return runSetup(cmd.Context(), env)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(ctx context.Context, e *env) error {
	if ctx == nil {
		ctx = context.Background()
	}

	program := tea.NewProgram(newSetupRunner(ctx, e.cfg))
	finalModel, err := program.Run()
	if err != nil {
		return errors.Wrap(err, "run setup")
	}

	runner, ok := finalModel.(setupRunner)
	if !ok || !runner.done {
		return errors.New("setup cancelled")
	}

	e.cfg.BaseURL = runner.baseURL
	if runner.topK > 0 {
		e.cfg.TopK = runner.topK
	}
	if err := e.cfg.Save(); err != nil {
		return errors.Wrap(err, "save config")
	}
	e.log.Info("config saved", zap.String("base_url", e.cfg.BaseURL), zap.Int("top_k", e.cfg.TopK))
	return nil
}

type healthCheckedMsg struct {
	submit tui.SetupSubmitMsg
	err    error
}

type setupRunner struct {
	setupModel tui.SetupModel
	ctx        context.Context
	cfg        *config.Config
	baseURL    string
	topK       int
	done       bool
}

func newSetupRunner(ctx context.Context, cfg *config.Config) setupRunner {
	return setupRunner{
		setupModel: tui.NewSetupModel(cfg.BaseURL, cfg.TopK),
		ctx:        ctx,
		cfg:        cfg,
	}
}

func (m setupRunner) Init() tea.Cmd {
	return tea.Batch(m.setupModel.Init(), tea.EnableBracketedPaste)
}

func (m setupRunner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SetupSubmitMsg:
		candidate := *m.cfg
		candidate.BaseURL = msg.BaseURL
		if msg.TopK > 0 {
			candidate.TopK = msg.TopK
		}
		if err := candidate.Validate(); err != nil {
			return m.showError(err.Error())
		}

		ctx, timeout := m.ctx, candidate.Timeout()
		return m, func() tea.Msg {
			client := emojiapi.NewClient(msg.BaseURL, timeout)
			return healthCheckedMsg{submit: msg, err: client.Health(ctx)}
		}

	case healthCheckedMsg:
		if msg.err != nil {
			return m.showError("Service unreachable: " + msg.err.Error())
		}
		m.baseURL = msg.submit.BaseURL
		m.topK = msg.submit.TopK
		m.done = true
		return m, tea.Quit

	default:
		newModel, cmd := m.setupModel.Update(msg)
		if sm, ok := newModel.(tui.SetupModel); ok {
			m.setupModel = sm
		}
		return m, cmd
	}
}

func (m setupRunner) showError(text string) (tea.Model, tea.Cmd) {
	newModel, _ := m.setupModel.Update(tui.SetupErrorMsg{Error: text})
	if sm, ok := newModel.(tui.SetupModel); ok {
		m.setupModel = sm
	}
	return m, nil
}

func (m setupRunner) View() string {
	return m.setupModel.View()
}

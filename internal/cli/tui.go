package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omni-quota/internal/app"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/services"
	"github.com/j-veylop/omni-quota/internal/ui/tabs/dashboard"
	"github.com/j-veylop/omni-quota/internal/ui/tabs/history"
	"github.com/j-veylop/omni-quota/internal/ui/tabs/info"
)

// runTUI starts monitoring and runs the Bubble Tea program until the user quits.
func (e *env) runTUI(ctx context.Context) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log lines would corrupt the alternate screen, so the TUI always logs to file.
	logFile, err := logger.SetupFile(cfg.LogPath, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer logFile.Close()

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := app.NewModel(mgr)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, model.Prefs()),
		history.New(state, mgr.History().Series),
		info.New(state, cfg),
	})

	mgr.Start(ctx)
	logger.Info("Monitoring started", "interval", cfg.PollInterval, "store", cfg.StorePath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	go func() {
		select {
		case <-sigChan:
			p.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depscope/internal/watcher"
)

var (
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Rescan automatically when package state changes",
		Long: `Watch the package manager's database directories and store a fresh
snapshot whenever their contents settle after a change. A long install
transaction produces a single rescan, not one per touched file.

The command runs in the foreground until interrupted.`,
		Example: `  # Watch the autodetected package manager
  depscope watch

  # Wait longer for transactions to settle
  depscope watch --debounce 30s`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a change triggers a rescan")
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := resolveCollector()
	if err != nil {
		return err
	}

	rescan := func() {
		reg, err := collectAndStore(c)
		if err != nil {
			log.Error("rescan failed", "manager", c.Name(), "err", err)
			return
		}
		log.Info("stored snapshot", "manager", c.Name(), "packages", reg.Len())
	}

	w, err := watcher.New(watcher.StatePaths(c.Name()), watchDebounce, rescan)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	// Baseline snapshot so --cached works before the first change.
	rescan()

	fmt.Printf("Watching %s package state (Ctrl-C to stop)\n", c.Name())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return w.Stop()
}

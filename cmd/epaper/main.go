package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/epaper/internal/app"
)

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "epaper",
		Short:         "Browse, preview, and email scanned newspaper pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.logger.Info("starting epaper", "backend", rt.cfg.Backend.BaseURL)

			p := tea.NewProgram(app.New(rt.appDeps()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	registerGlobalFlags(rootCmd, opts)
	rootCmd.AddCommand(
		newFoldersCmd(opts),
		newFilesCmd(opts),
		newPreviewCmd(opts),
		newSendCmd(opts),
		newHistoryCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newConfigCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

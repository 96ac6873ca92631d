package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/nhle/epaper/internal/credential"
	"github.com/nhle/epaper/internal/listing"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/preview"
	"github.com/nhle/epaper/internal/store"
	"github.com/nhle/epaper/internal/theme"
)

// commandContext returns a context cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(headers...)
}

func newFoldersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List the folders known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			entries, err := rt.client.ListFolders(ctx)
			if err != nil {
				return fmt.Errorf("listing folders: %w", err)
			}

			t := newTable("ID", "NAME")
			for _, e := range entries {
				t.Row(e.ID, e.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newFilesCmd(opts *globalOptions) *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the pages of a folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			l := listing.New(rt.client, 0, rt.logger)
			files, err := l.Load(ctx, folderID)
			if err != nil {
				return fmt.Errorf("listing files: %w", err)
			}

			t := newTable("ID", "NAME", "THUMBNAIL")
			for _, f := range files {
				t.Row(f.ID, f.Name, f.ThumbnailURL)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", "", "Folder ID (default listing when empty)")
	return cmd
}

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var (
		name string
		open bool
		keep bool
	)

	cmd := &cobra.Command{
		Use:   "preview <fileId>",
		Short: "Fetch and validate a page, then print where it was stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			file := model.FileRecord{ID: args[0], Name: name}
			if file.Name == "" {
				file.Name = args[0] + ".pdf"
			}

			previews := rt.newPreviews()
			s := previews.Open(file)
			out := s.Load(ctx)

			if out.State != preview.StateReady {
				_ = previews.Shutdown()
				return fmt.Errorf("preview %s: %s", file.ID, out.Error)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", out.Handle.Path, humanize.Bytes(uint64(out.Handle.Size)))

			// An external viewer reads the file after we exit; stale copies
			// are pruned on a later start.
			if !keep && !open {
				defer func() {
					if err := previews.Shutdown(); err != nil {
						rt.logger.Warn("releasing preview", "err", err)
					}
				}()
			}

			if open {
				if err := browser.OpenFile(out.Handle.Path); err != nil {
					return fmt.Errorf("opening %s: %w", out.Handle.Path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "File name used for the stored copy")
	cmd.Flags().BoolVar(&open, "open", false, "Open the document in the system viewer (implies --keep)")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the stored copy after the command exits")
	return cmd
}

func newSendCmd(opts *globalOptions) *cobra.Command {
	var (
		to     string
		fileID string
		name   string
		path   string
		meta   model.EmailMetadata
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Email a page as an attachment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			if meta.Date == "" {
				meta.Date = time.Now().Format("02/01/2006")
			}

			file := model.FileRecord{ID: fileID, Name: name, Path: path}
			res := rt.newDispatcher().Send(ctx, to, file, meta)
			if !res.Success {
				return fmt.Errorf("%s: %w", res.Notice, res.Err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Notice)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&to, "to", "", "Destination email address")
	flags.StringVar(&fileID, "file-id", "", "Backend file ID")
	flags.StringVar(&name, "name", "", "Attachment file name")
	flags.StringVar(&path, "path", "", "Backend-local path for legacy records")
	flags.StringVar(&meta.Edition, "edition", "", "Edition shown in the email body")
	flags.StringVar(&meta.Publication, "publication", "", "Publication shown in the email body")
	flags.StringVar(&meta.Date, "date", "", "Date shown in the email body (DD/MM/YYYY, default today)")

	for _, f := range []string{"to", "file-id", "name"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		failed bool
		prune  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent email attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			if prune > 0 {
				n, err := rt.store.PruneDispatches(ctx, prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d old attempts\n", n)
			}

			filter := store.DispatchFilter{Limit: limit}
			if failed {
				outcome := model.OutcomeFailure
				filter.Outcome = &outcome
			}

			dispatches, err := rt.store.GetDispatches(ctx, filter)
			if err != nil {
				return err
			}

			t := newTable("WHEN", "FILE", "TO", "OUTCOME", "MESSAGE")
			for _, d := range dispatches {
				t.Row(
					humanize.Time(d.CreatedAt),
					d.FileName,
					d.ToAddress,
					d.Outcome,
					d.Message,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 20, "Maximum number of attempts to show (0 for all)")
	flags.BoolVar(&failed, "failed", false, "Show failed attempts only")
	flags.IntVar(&prune, "prune", 0, "Keep only the newest N attempts before listing")
	return cmd
}

// credentialTarget picks the keyring key and its display name.
func credentialTarget(archivePassword bool) (key, what string) {
	if archivePassword {
		return credential.ArchivePasswordKey, "archive password"
	}
	return credential.TokenKey, "token"
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var (
		token   string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the backend bearer token in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, what := credentialTarget(archive)
			if token == "" {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().
						Title("Backend " + what).
						EchoMode(huh.EchoModePassword).
						Value(&token).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("%s is required", what)
							}
							return nil
						}),
				)).WithTheme(theme.FormTheme())
				if err := form.Run(); err != nil {
					return err
				}
			}

			vault, err := credential.Open()
			if err != nil {
				return err
			}
			if err := vault.Set(key, strings.TrimSpace(token)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), what+" saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Secret value (prompted when omitted)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Store the IMAP archive password instead of the backend token")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored backend token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, what := credentialTarget(archive)
			vault, err := credential.Open()
			if err != nil {
				return err
			}
			if err := vault.Delete(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), what+" removed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "Remove the IMAP archive password instead of the backend token")
	return cmd
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := model.SaveConfig(opts.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.configPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			t := newTable("KEY", "VALUE")
			t.Row("backend.base_url", cfg.Backend.BaseURL)
			t.Row("backend.timeout_sec", fmt.Sprint(cfg.Backend.TimeoutSec))
			t.Row("mail.from", cfg.Mail.From)
			t.Row("listing.debounce_ms", fmt.Sprint(cfg.Listing.DebounceMS))
			t.Row("storage.db_path", cfg.Storage.DBPath)
			t.Row("storage.document_dir", cfg.Storage.DocumentDir)
			t.Row("display.theme", cfg.Display.Theme)
			t.Row("log.level", cfg.Log.Level)
			t.Row("log.file", cfg.Log.File)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	})

	return cmd
}

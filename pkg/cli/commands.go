package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"contact-scrape-go/pkg/cli/tui"
	"contact-scrape-go/pkg/config"
	"contact-scrape-go/pkg/logger"
	"contact-scrape-go/pkg/registry"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the contact-scrape command tree. The App is created
// once flags are parsed, so every subcommand sees the same config.
func NewRootCommand() *cobra.Command {
	var app *App

	cmd := &cobra.Command{
		Use:           "contact-scrape",
		Short:         "Discover, confirm and scrape contact websites",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if upload, _ := cmd.Flags().GetInt64("upload"); cmd.Flags().Changed("upload") {
				cfg.Scrape.UploadID = upload
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Logging.Level = level
			}

			if _, err := logger.Init(logger.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				File:   cfg.Logging.File,
				Name:   "cli",
			}); err != nil {
				return err
			}

			app = NewApp(cfg)
			app.SetIO(cmd.InOrStdin(), cmd.OutOrStdout())
			app.SetConfigPath(configPath)
			useDB, _ := cmd.Flags().GetBool("db")
			app.UseDatabase(useDB)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app != nil {
				app.Close()
			}
			logger.CloseLog()
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file path (defaults to ~/.config/contact-scrape/config.toml).")
	cmd.PersistentFlags().Bool("db", false, "Read contacts from database.url instead of the scraping backend.")
	cmd.PersistentFlags().Int64("upload", 0, "Only work on contacts of this upload (overrides scrape.upload_id).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")

	get := func() *App { return app }
	cmd.AddCommand(newBrowseCmd(get))
	cmd.AddCommand(newContactsCmd(get))
	cmd.AddCommand(newScrapeCmd(get))
	cmd.AddCommand(newRetryCmd(get))
	cmd.AddCommand(newHealthCmd(get))
	cmd.AddCommand(newConfigCmd(get))
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newBrowseCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse, select and scrape contacts interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			orch, err := a.getOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			model := tui.NewScrapeBrowser(cmd.Context(), orch, registry.NewSelection(orch.Registry()), a.cfg.Scrape.PageSize)
			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running browser: %w", err)
			}
			orch.AbortAll()
			return nil
		},
	}
}

func newContactsCmd(app func() *App) *cobra.Command {
	var opts ListOptions
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"ls"},
		Short:   "List contacts and their scrape status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app().ListContacts(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status: ready|scraping|scraped|failed.")
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "Filter by name, website, email, state or zip.")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number.")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Contacts per page (defaults to scrape.page_size).")
	return cmd
}

func newScrapeCmd(app func() *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "scrape [contact-id...]",
		Short: "Scrape contacts, confirming discovered websites as prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("give contact ids or --all")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return app().Scrape(cmd.Context(), ScrapeOptions{IDs: ids, All: all})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Scrape every ready or failed contact.")
	return cmd
}

func newRetryCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <contact-id>",
		Short: "Reset a scraped or failed contact so it can be scraped again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return app().Retry(cmd.Context(), ids[0])
		},
	}
}

func newHealthCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the scraping backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app().CheckHealth(cmd.Context())
		},
	}
}

func newConfigCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return app().ShowConfig()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <section.key=value>",
		Short: "Set one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app().SetConfig(args[0]); err != nil {
				return fmt.Errorf("failed to set config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration updated successfully")
			return nil
		},
	})
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid contact id: %s", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

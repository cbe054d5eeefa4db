package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"contact-scrape-go/pkg/config"
	"contact-scrape-go/pkg/db"
	"contact-scrape-go/pkg/logger"
	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/scraper"
)

type App struct {
	cfg    *config.Config
	client *scraper.Client
	svc    scraper.Service
	source registry.Source
	db     *db.DB
	orch   *orchestrator.Orchestrator
	logger *slog.Logger

	configPath string
	useDB      bool
	progress   bool
	in         *bufio.Reader
	out        io.Writer
	outMu      sync.Mutex
}

func NewApp(cfg *config.Config) *App {
	return &App{
		cfg:    cfg,
		logger: logger.L(),
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// SetIO redirects prompts and output.
func (a *App) SetIO(in io.Reader, out io.Writer) {
	a.in = bufio.NewReader(in)
	a.out = out
}

// SetConfigPath makes config set write to path instead of the default file.
func (a *App) SetConfigPath(path string) {
	a.configPath = path
}

// UseDatabase makes the registry read contacts from Postgres instead of
// the backend's contact list.
func (a *App) UseDatabase(on bool) {
	a.useDB = on
}

// Close releases the database pool, if one was opened.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

// getClient returns the scraping backend client, creating it if necessary
func (a *App) getClient() (*scraper.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if a.cfg.Scraper.BaseURL == "" {
		return nil, fmt.Errorf("scraper base URL not configured")
	}
	a.client = scraper.NewClient(scraper.Options{
		BaseURL:      a.cfg.Scraper.BaseURL,
		BasePath:     a.cfg.Scraper.BasePath,
		APIKey:       a.cfg.Scraper.APIKey,
		Timeout:      a.cfg.ScraperTimeout(),
		MaxRetries:   a.cfg.Scraper.MaxRetries,
		RetryBackoff: a.cfg.RetryBackoff(),
		Logger:       a.logger,
	})
	return a.client, nil
}

func (a *App) service() (scraper.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	client, err := a.getClient()
	if err != nil {
		return nil, err
	}
	a.svc = client
	return a.svc, nil
}

// contactSource picks where the registry loads contacts from.
func (a *App) contactSource(ctx context.Context) (registry.Source, error) {
	if a.source != nil {
		return a.source, nil
	}
	if a.useDB {
		if a.cfg.Database.URL == "" {
			return nil, fmt.Errorf("database.url not configured")
		}
		database, err := db.Connect(ctx, a.cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.db = database
		a.source = database
		return a.source, nil
	}
	client, err := a.getClient()
	if err != nil {
		return nil, err
	}
	a.source = client
	return a.source, nil
}

// getOrchestrator wires the registry and orchestrator and loads the first
// snapshot of contacts.
func (a *App) getOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	if a.orch != nil {
		return a.orch, nil
	}
	svc, err := a.service()
	if err != nil {
		return nil, err
	}
	source, err := a.contactSource(ctx)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(svc, registry.New(source), orchestrator.Options{
		Concurrency:     a.cfg.Scrape.Concurrency,
		SettleDelay:     a.cfg.SettleDelay(),
		BatchLimitSlack: a.cfg.Scrape.BatchLimitSlack,
		Logger:          a.logger,
		Hooks: orchestrator.Hooks{
			OnFilterChange: func(q models.ContactQuery) {
				a.logger.Debug("contact filter changed", "upload_id", q.UploadID, "status", q.Status)
			},
			OnContactStatusUpdate: func(c models.Contact) {
				if a.progress {
					a.printf("  → #%d %s: %s\n", c.ID, c.DisplayName(), c.Status.Label())
				}
			},
			OnAfterScrape: func(r *orchestrator.BatchReport) {
				s := r.Summary()
				a.logger.Debug("scrape finished", "run_id", r.RunID, "total", s.Total, "failed", s.Failed, "pending", len(r.Pending))
			},
		},
	})
	if err := orch.ChangeFilter(ctx, models.ContactQuery{UploadID: a.cfg.Scrape.UploadID}); err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	a.orch = orch
	return orch, nil
}

// printf writes to the app's output; status hooks call it from worker
// goroutines.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// CheckHealth probes the scraping backend
func (a *App) CheckHealth(ctx context.Context) error {
	client, err := a.getClient()
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, "⏳ Checking scraper service... ")
	if err := client.CheckHealth(ctx); err != nil {
		fmt.Fprintln(a.out, "✗")
		if scraper.IsRetryable(err) {
			return fmt.Errorf("scraper service unavailable: %w\n\n"+
				"💡 Check that the backend is running and that scraper.base_url (%s) is correct.\n"+
				"   contact-scrape config set scraper.base_url=http://host:port", err, a.cfg.Scraper.BaseURL)
		}
		return fmt.Errorf("scraper service unhealthy: %w", err)
	}
	fmt.Fprintln(a.out, "✓")
	return nil
}

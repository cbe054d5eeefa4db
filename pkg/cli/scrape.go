package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"contact-scrape-go/pkg/cli/format"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/scraper"
	"contact-scrape-go/pkg/utils"
)

// ScrapeOptions picks the contacts of a scrape run.
type ScrapeOptions struct {
	IDs []int64
	All bool // every selectable contact in the registry
}

// Scrape runs the scrape flow for the given contacts, then walks the
// operator through every confirmation the run queued.
func (a *App) Scrape(ctx context.Context, opts ScrapeOptions) error {
	orch, err := a.getOrchestrator(ctx)
	if err != nil {
		return err
	}

	ids := opts.IDs
	if opts.All {
		sel := registry.NewSelection(orch.Registry())
		for _, c := range orch.Registry().Contacts() {
			sel.Select(c.ID)
		}
		ids = sel.IDs()
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.out, "No scrapeable contacts selected.")
		return nil
	}

	a.progress = true
	defer func() { a.progress = false }()

	a.printf("⏳ Scraping %d contact(s)...\n", len(ids))
	report, err := orch.StartScrape(ctx, ids)
	if err != nil {
		return err
	}
	a.printf("%s", format.Report(report))

	return a.resolvePending(ctx, orch)
}

// Retry resets a scraped or failed contact so it can be scraped again
func (a *App) Retry(ctx context.Context, contactID int64) error {
	orch, err := a.getOrchestrator(ctx)
	if err != nil {
		return err
	}

	report, err := orch.Retry(ctx, contactID)
	if report != nil {
		fmt.Fprintf(a.out, "Contact #%d is now %s\n", report.ContactID, report.Status.Label())
		if report.RefreshErr != nil {
			fmt.Fprintf(a.out, "⚠️  Contacts could not be reloaded: %v\n", report.RefreshErr)
		}
	}
	if err != nil {
		return fmt.Errorf("reset failed: %s", scraper.UserMessage(err))
	}
	return nil
}

// resolvePending prompts for every queued confirmation, head first.
func (a *App) resolvePending(ctx context.Context, orch *orchestrator.Orchestrator) error {
	for {
		req, ok := orch.Queue().Head()
		if !ok {
			return nil
		}

		var (
			report *orchestrator.BatchReport
			err    error
		)
		switch req.Kind {
		case orchestrator.KindBatch:
			report, err = a.promptBatch(ctx, orch, req)
		default:
			report, err = a.promptSingle(ctx, orch, req)
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintf(a.out, "\n%d confirmation(s) left unresolved.\n", orch.Queue().Len())
			return nil
		}
		if err != nil {
			return err
		}
		a.printf("%s", format.Report(report))
	}
}

func (a *App) promptSingle(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.ConfirmationRequest) (*orchestrator.BatchReport, error) {
	if len(req.Candidates) == 0 {
		return nil, orch.Dismiss(req.ID)
	}
	c := req.Candidates[0]
	fmt.Fprintf(a.out, "\nA website was discovered for contact #%d:\n", c.ContactID)
	fmt.Fprint(a.out, format.Candidate(c))

	for {
		answer, err := a.prompt("Scrape it? [y]es / [e]dit URL / [s]kip / [r]emove / [d]ismiss: ")
		if err != nil {
			return nil, err
		}
		var d orchestrator.Decision
		switch strings.ToLower(answer) {
		case "y", "yes", "":
			d = orchestrator.Confirmed("")
		case "e", "edit":
			raw, err := a.prompt("URL: ")
			if err != nil {
				return nil, err
			}
			url, err := utils.ValidateURL(raw)
			if err != nil {
				fmt.Fprintf(a.out, "❌ %v\n", err)
				continue
			}
			d = orchestrator.Confirmed(url)
		case "s", "skip":
			d = orchestrator.Skipped()
		case "r", "remove":
			d = orchestrator.Removed()
		case "d", "dismiss":
			return nil, orch.Dismiss(req.ID)
		default:
			continue
		}
		return orch.ResolveSingle(ctx, req.ID, d)
	}
}

func (a *App) promptBatch(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.ConfirmationRequest) (*orchestrator.BatchReport, error) {
	session := orchestrator.NewBatchSession(req)
	fmt.Fprintf(a.out, "\nWebsites were discovered for %d contact(s) of upload %d.\n", len(req.Candidates), req.UploadID)

	for i, c := range req.Candidates {
		fmt.Fprintf(a.out, "\n[%d/%d] contact #%d\n", i+1, len(req.Candidates), c.ContactID)
		fmt.Fprint(a.out, format.Candidate(c))
		if err := a.decideCandidate(session, c.ContactID); err != nil {
			return nil, err
		}
	}

	if !session.CanSubmit() {
		fmt.Fprintln(a.out, "Nothing confirmed; closing without scraping.")
		return nil, orch.Dismiss(req.ID)
	}
	a.printf("⏳ Scraping %d confirmed website(s)...\n", session.ConfirmedCount())
	return orch.ResolveBatch(ctx, req.ID, session)
}

func (a *App) decideCandidate(session *orchestrator.BatchSession, contactID int64) error {
	for {
		answer, err := a.prompt("Scrape it? [y]es / [e]dit URL / [n]o / [r]emove: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "y", "yes", "":
			return session.Confirm(contactID)
		case "e", "edit":
			url, err := a.prompt("URL: ")
			if err != nil {
				return err
			}
			if err := session.ConfirmURL(contactID, url); err != nil {
				if errors.Is(err, orchestrator.ErrInvalidURL) {
					fmt.Fprintf(a.out, "❌ %v\n", err)
					continue
				}
				return err
			}
			return nil
		case "n", "no":
			return session.Unmark(contactID)
		case "r", "remove":
			return session.Remove(contactID)
		}
	}
}

// prompt prints label and reads one trimmed line.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

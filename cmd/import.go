package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/playsheet/internal/formatter"
	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/services"
	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/desertthunder/playsheet/internal/sheet"
	"github.com/desertthunder/playsheet/internal/tasks"
	"github.com/urfave/cli/v3"
)

const (
	defaultLogPath = "~/.playsheet/import.log"
	providerTitle  = "Which service should the playlist be created on?"
)

// Import loads a spreadsheet and builds a playlist from it, asking the operator to resolve every row.
//
// Logs go to --log-file while prompts are on screen. A run interrupted with ctrl+c still prints and records
// the partial result.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: spreadsheet file", shared.ErrMissingArgument)
	}

	if reportPath := cmd.String("report"); reportPath != "" {
		if _, err := formatter.ReportFormat(reportPath); err != nil {
			return err
		}
	}

	requests, err := sheet.Load(path)
	if err != nil {
		return err
	}
	r.logger.Debug("spreadsheet loaded", "path", path, "tracks", len(requests))

	config, err := r.loadConfig(cmd, true)
	if err != nil {
		return err
	}

	name, err := r.chooseProvider(ctx, cmd.String("provider"))
	if err != nil {
		return err
	}

	if logPath := cmd.String("log-file"); logPath != "" {
		fileLogger, logFile, err := shared.NewFileLogger(shared.ExpandHome(logPath))
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		fileLogger.SetLevel(r.logger.GetLevel())

		prev := r.logger
		r.SetLogger(fileLogger)
		defer func() {
			r.SetLogger(prev)
			logFile.Close()
		}()
	}

	provider, err := r.connect(ctx, config, name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.console.OnInterrupt(cancel)

	importer := tasks.NewImporter(provider, r.console, tasks.ImporterOptions{
		MaxResults: config.Import.MaxResults,
		Progress:   r.progress,
		Logger:     shared.WithLogger(r.logger, "sheet", path),
	})

	spec := tasks.PlaylistSpec{
		Name:           cmd.String("name"),
		Description:    cmd.String("description"),
		AskDescription: provider.Name() == services.YouTubeName && !cmd.IsSet("description"),
	}

	report, runErr := importer.Run(ctx, requests, spec)
	if report == nil {
		return runErr
	}
	if runErr != nil {
		r.console.Error(context.WithoutCancel(ctx), "Import interrupted, the playlist holds the tracks added so far.")
	}

	r.writeSummary(report)

	run := report.Record(path)
	if reportPath := cmd.String("report"); reportPath != "" {
		written, err := formatter.WriteReport(run, reportPath)
		if err != nil {
			return errors.Join(runErr, err)
		}
		r.writePlain("Report written to %s\n", written)
	}

	if config.Database.History && !cmd.Bool("no-history") {
		r.recordRun(config, run)
	}

	return runErr
}

// chooseProvider resolves the --provider flag, prompting when it is empty.
func (r *Runner) chooseProvider(ctx context.Context, flag string) (string, error) {
	if strings.TrimSpace(flag) != "" {
		return parseProvider(flag)
	}

	idx, ok := r.console.Choose(ctx, providerTitle, providerNames)
	if !ok || idx < 0 || idx >= len(providerNames) {
		return "", shared.NewOpError("import", shared.ErrCancelled, fmt.Errorf("no provider selected"))
	}
	return providerNames[idx], nil
}

// progress mirrors importer updates to the console and the log.
func (r *Runner) progress(update tasks.ProgressUpdate) {
	r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)

	switch update.Phase {
	case tasks.CreatePlaylist:
		if update.Step == update.Total {
			r.console.Status(update.Message)
		}
	case tasks.ResolveTrack:
		if _, done := update.Data.(models.Outcome); done {
			r.console.Status(update.Message)
		}
	}
}

// recordRun saves the run to the history database. Failures are logged, never fatal.
func (r *Runner) recordRun(config *shared.Config, run *models.ImportRun) {
	db, repo, err := r.openHistory(config)
	if err != nil {
		r.logger.Warn("history unavailable", "error", err)
		return
	}
	defer db.Close()

	if err := repo.Create(run); err != nil {
		r.logger.Warn("failed to record import", "error", err)
		return
	}
	r.logger.Info("import recorded", "id", run.ID(), "sequence", run.Sequence())
	r.writePlain("Recorded as import #%d\n", run.Sequence())
}

func (r *Runner) writeSummary(report *tasks.Report) {
	total := len(report.Outcomes)

	r.writePlainHeader(fmt.Sprintf("%s playlist: %s", report.Provider, report.Playlist.Name))
	if report.Playlist.URL != "" {
		r.writePlain("URL:      %s\n", report.Playlist.URL)
	}
	r.writePlain("Added:    %d/%d\n", report.Added(), total)
	r.writePlain("Skipped:  %d\n", len(report.Skipped()))
	r.writePlain("Duration: %s\n", report.CompletedAt.Sub(report.StartedAt).Round(time.Second))
	for _, q := range report.Skipped() {
		r.writePlain("  ✗ %s\n", q)
	}
}

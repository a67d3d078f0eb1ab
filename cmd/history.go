package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playsheet/internal/formatter"
	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded imports, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd, false)
	if err != nil {
		return err
	}

	db, repo, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if provider := cmd.String("provider"); provider != "" {
		name, err := parseProvider(provider)
		if err != nil {
			return err
		}
		criteria["provider"] = name
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No imports recorded yet.\n")
	}

	r.writePlain("%-5s %-17s %-8s %-7s %-7s %s\n", "#", "COMPLETED", "SERVICE", "ADDED", "SKIPPED", "PLAYLIST")
	for _, run := range runs {
		r.writePlain("%-5d %-17s %-8s %-7s %-7d %s\n",
			run.Sequence(),
			run.CompletedAt.Local().Format("2006-01-02 15:04"),
			run.Provider,
			fmt.Sprintf("%d/%d", run.Added(), len(run.Outcomes)),
			len(run.Skipped()),
			run.Playlist.Name,
		)
	}
	return nil
}

// HistoryShow prints one import with every outcome.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("id")
	if ref == "" {
		return fmt.Errorf("%w: import id or #sequence", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd, false)
	if err != nil {
		return err
	}

	db, repo, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repo.Find(ref)
	if err != nil {
		return err
	}

	var out []byte
	if cmd.Bool("json") {
		out, err = formatter.ExportToJSON(run)
	} else {
		out, err = formatter.ExportToText(run)
	}
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// HistoryDelete removes an import from the history. The playlist itself is left untouched.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("id")
	if ref == "" {
		return fmt.Errorf("%w: import id or #sequence", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd, false)
	if err != nil {
		return err
	}

	db, repo, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repo.Find(ref)
	if err != nil {
		return err
	}
	if err := repo.Delete(run.ID()); err != nil {
		return err
	}

	r.logger.Info("import deleted", "id", run.ID())
	return r.writePlain("✓ Deleted import #%d (%s)\n", run.Sequence(), run.Playlist.Name)
}

package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
)

var _ models.Repository[*models.ImportRun] = (*RunRepository)(nil)

const runColumns = `id, sequence, provider, sheet_path, playlist_id, playlist_name, playlist_url, started_at, completed_at, created_at, updated_at`

// RunRepository implements models.Repository[*models.ImportRun] for import history.
//
// A run and its outcomes are written in one transaction; outcomes keep processing order through their position.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and its outcomes with generated ID and sequence
func (r *RunRepository) Create(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(tx, "import_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	id := shared.GenerateID()

	query := `
		INSERT INTO import_runs (` + runColumns + `, tracks_total, tracks_added, tracks_skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		id,
		sequence,
		run.Provider,
		run.SheetPath,
		run.Playlist.ID,
		run.Playlist.Name,
		run.Playlist.URL,
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt(),
		run.UpdatedAt(),
		len(run.Outcomes),
		run.Added(),
		len(run.Skipped()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	if err := insertOutcomes(tx, id, run.Outcomes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run with its outcomes by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE id = ? AND deleted_at IS NULL`
	return r.withOutcomes(r.scanOne(r.db.QueryRow(query, id), id))
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.withOutcomes(r.scanOne(r.db.QueryRow(query, sequence), "#"+strconv.Itoa(sequence)))
}

// Find resolves ref as a sequence number ("12" or "#12"), a full ID, or a unique ID prefix.
func (r *RunRepository) Find(ref string) (*models.ImportRun, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty run reference", shared.ErrInvalidArgument)
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return r.GetBySequence(n)
	}

	rows, err := r.db.Query(`SELECT id FROM import_runs WHERE id LIKE ? ESCAPE '\' AND deleted_at IS NULL LIMIT 2`, likePrefix(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan import run id: %w", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read import run ids: %w", err)
	}

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("import run %w: %s", shared.ErrNotFound, ref)
	case 1:
		return r.Get(ids[0])
	default:
		return nil, fmt.Errorf("%w: %q matches more than one import run", shared.ErrInvalidArgument, ref)
	}
}

// Update rewrites a run's playlist details and replaces its outcomes
func (r *RunRepository) Update(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE import_runs
		SET playlist_id = ?, playlist_name = ?, playlist_url = ?, tracks_total = ?, tracks_added = ?, tracks_skipped = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := tx.Exec(query,
		run.Playlist.ID,
		run.Playlist.Name,
		run.Playlist.URL,
		len(run.Outcomes),
		run.Added(),
		len(run.Skipped()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}
	if err := checkAffected(result, "import run", run.ID()); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM import_outcomes WHERE run_id = ?`, run.ID()); err != nil {
		return fmt.Errorf("failed to clear outcomes: %w", err)
	}
	if err := insertOutcomes(tx, run.ID(), run.Outcomes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import run: %w", err)
	}

	run.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE import_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete import run: %w", err)
	}

	return checkAffected(result, "import run", id)
}

// List retrieves runs matching the given criteria, newest first.
//
// Supported criteria are "provider" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE deleted_at IS NULL`
	args := []any{}

	if provider, ok := criteria["provider"].(string); ok && provider != "" {
		query += " AND provider = ? COLLATE NOCASE"
		args = append(args, provider)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// Outcomes are loaded after the cursor is closed; the in-memory pool holds a single connection.
	for _, run := range runs {
		if run.Outcomes, err = r.outcomes(run.ID()); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (r *RunRepository) withOutcomes(run *models.ImportRun, err error) (*models.ImportRun, error) {
	if err != nil {
		return nil, err
	}
	if run.Outcomes, err = r.outcomes(run.ID()); err != nil {
		return nil, err
	}
	return run, nil
}

// outcomes loads a run's outcomes in processing order
func (r *RunRepository) outcomes(runID string) ([]models.Outcome, error) {
	query := `
		SELECT sheet_row, artist, title, kind, item_id, query, attempts
		FROM import_outcomes
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []models.Outcome{}
	for rows.Next() {
		var (
			o      models.Outcome
			kind   string
			itemID sql.NullString
		)
		if err := rows.Scan(&o.Request.Row, &o.Request.Artist, &o.Request.Title, &kind, &itemID, &o.Query, &o.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		if o.Kind, err = models.ParseOutcomeKind(kind); err != nil {
			return nil, err
		}
		o.ItemID = itemID.String
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return outcomes, nil
}

func insertOutcomes(tx *sql.Tx, runID string, outcomes []models.Outcome) error {
	query := `
		INSERT INTO import_outcomes (run_id, position, sheet_row, artist, title, kind, item_id, query, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, o := range outcomes {
		itemID := sql.NullString{String: o.ItemID, Valid: o.ItemID != ""}
		_, err := tx.Exec(query, runID, i, o.Request.Row, o.Request.Artist, o.Request.Title, o.Kind.String(), itemID, o.Query, o.Attempts)
		if err != nil {
			return fmt.Errorf("failed to insert outcome %d: %w", i, err)
		}
	}
	return nil
}

// scanOne scans a single row into a [models.ImportRun]
func (r *RunRepository) scanOne(row *sql.Row, ref string) (*models.ImportRun, error) {
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import run %w: %s", shared.ErrNotFound, ref)
	}
	return run, err
}

// scanRow scans a row from [sql.Rows] into a [models.ImportRun]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.ImportRun, error) {
	return scanRun(rows.Scan)
}

func scanRun(scan func(dest ...any) error) (*models.ImportRun, error) {
	var (
		id          string
		sequence    int
		provider    string
		sheetPath   string
		playlist    models.PlaylistHandle
		startedAt   time.Time
		completedAt time.Time
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := scan(&id, &sequence, &provider, &sheetPath, &playlist.ID, &playlist.Name, &playlist.URL, &startedAt, &completedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import run: %w", err)
	}

	run := models.RestoreImportRun(id, sequence, createdAt, updatedAt)
	run.Provider = provider
	run.SheetPath = sheetPath
	run.Playlist = playlist
	run.StartedAt = startedAt
	run.CompletedAt = completedAt
	return run, nil
}

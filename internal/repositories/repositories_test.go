package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRun(provider string) *models.ImportRun {
	queen := models.TrackRequest{Artist: "Queen", Title: "Bohemian Rhapsody", Row: 1}
	unknown := models.TrackRequest{Artist: "Unknown Artist", Title: "Nonexistent Song", Row: 2}
	outcomes := []models.Outcome{
		models.AddedOutcome(queen, "spotify:track:1", queen.Query(), 1),
		models.SkippedOutcome(unknown, "Unknown Artist Nonexistent", 2),
	}
	playlist := models.PlaylistHandle{ID: "pl-1", Name: "Road Trip", URL: "https://open.spotify.com/playlist/pl-1"}
	return models.NewImportRun(provider, "songs.xlsx", playlist, outcomes, time.Now().Add(-time.Minute))
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "things")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	if got, err := NextSequence(db, "others"); err != nil || got != 1 {
		t.Errorf("counters should be independent, got %d (%v)", got, err)
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newTestRun("Spotify")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newTestRun("Spotify")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.Provider != "Spotify" || got.SheetPath != "songs.xlsx" {
			t.Errorf("unexpected run fields: %+v", got)
		}
		if got.Playlist != run.Playlist {
			t.Errorf("expected playlist %+v, got %+v", run.Playlist, got.Playlist)
		}
		if !got.StartedAt.Equal(run.StartedAt) {
			t.Errorf("expected started_at %v, got %v", run.StartedAt, got.StartedAt)
		}
		if len(got.Outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(got.Outcomes))
		}

		first, second := got.Outcomes[0], got.Outcomes[1]
		if first.Kind != models.Added || first.ItemID != "spotify:track:1" || first.Request.Artist != "Queen" {
			t.Errorf("unexpected first outcome: %+v", first)
		}
		if second.Kind != models.Skipped || second.ItemID != "" || second.Query != "Unknown Artist Nonexistent" || second.Attempts != 2 {
			t.Errorf("unexpected second outcome: %+v", second)
		}
		if second.Request.Row != 2 {
			t.Errorf("expected row 2, got %d", second.Request.Row)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		_, err := repo.Get("nonexistent-id")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateValidation", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newTestRun("")

		if err := repo.Create(run); err == nil {
			t.Fatal("expected validation error for empty provider")
		}
		if run.ID() != "" {
			t.Error("failed create should not assign an ID")
		}
	})

	t.Run("Find", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		first, second := newTestRun("Spotify"), newTestRun("YouTube")
		for _, run := range []*models.ImportRun{first, second} {
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		tests := []struct {
			name string
			ref  string
			want string
		}{
			{"Sequence", "2", second.ID()},
			{"HashSequence", "#1", first.ID()},
			{"FullID", first.ID(), first.ID()},
			{"Prefix", second.ID()[:13], second.ID()},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.Find(tt.ref)
				if err != nil {
					t.Fatalf("Find(%q) failed: %v", tt.ref, err)
				}
				if got.ID() != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got.ID())
				}
				if len(got.Outcomes) != 2 {
					t.Errorf("expected outcomes to be loaded, got %d", len(got.Outcomes))
				}
			})
		}

		t.Run("Missing", func(t *testing.T) {
			if _, err := repo.Find("zzz"); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if _, err := repo.Find("#9"); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("Wildcards Match Literally", func(t *testing.T) {
			single := NewRunRepository(setupTestDB(t))
			if err := single.Create(newTestRun("Spotify")); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}

			for _, ref := range []string{"%", "_", "__", "%-"} {
				if _, err := single.Find(ref); !errors.Is(err, shared.ErrNotFound) {
					t.Errorf("Find(%q): expected ErrNotFound, got %v", ref, err)
				}
			}
		})

		t.Run("Empty", func(t *testing.T) {
			if _, err := repo.Find(" "); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newTestRun("Spotify")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Playlist.Name = "Renamed"
		run.Outcomes = run.Outcomes[:1]
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Playlist.Name != "Renamed" {
			t.Errorf("expected renamed playlist, got %q", got.Playlist.Name)
		}
		if len(got.Outcomes) != 1 {
			t.Errorf("expected outcomes to be replaced, got %d", len(got.Outcomes))
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newTestRun("Spotify")
		run.SetID("nonexistent-id")

		if err := repo.Update(run); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newTestRun("Spotify")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("deleted run should not be retrievable")
		}
		if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("second delete should report ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		providers := []string{"Spotify", "YouTube", "Spotify"}
		for _, p := range providers {
			if err := repo.Create(newTestRun(p)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		t.Run("NewestFirst", func(t *testing.T) {
			runs, err := repo.List(nil)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 3 {
				t.Fatalf("expected 3 runs, got %d", len(runs))
			}
			for i, want := range []int{3, 2, 1} {
				if runs[i].Sequence() != want {
					t.Errorf("runs[%d]: expected sequence %d, got %d", i, want, runs[i].Sequence())
				}
			}
			if runs[0].Added() != 1 || len(runs[0].Skipped()) != 1 {
				t.Error("listed runs should carry their outcomes")
			}
		})

		t.Run("ByProvider", func(t *testing.T) {
			runs, err := repo.List(map[string]any{"provider": "spotify"})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 2 {
				t.Errorf("expected 2 Spotify runs, got %d", len(runs))
			}
		})

		t.Run("Limit", func(t *testing.T) {
			runs, err := repo.List(map[string]any{"limit": 1})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 1 || runs[0].Sequence() != 3 {
				t.Errorf("expected only the newest run, got %d runs", len(runs))
			}
		})

		t.Run("Empty", func(t *testing.T) {
			runs, err := NewRunRepository(setupTestDB(t)).List(nil)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 0 {
				t.Errorf("expected no runs, got %d", len(runs))
			}
		})
	})
}

func TestLikePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "abc%"},
		{"%", `\%%`},
		{"a_b", `a\_b%`},
		{`a\b`, `a\\b%`},
	}

	for _, tt := range tests {
		if got := likePrefix(tt.in); got != tt.want {
			t.Errorf("likePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

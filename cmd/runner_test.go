package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/services"
	"github.com/desertthunder/playsheet/internal/shared"
	tu "github.com/desertthunder/playsheet/internal/testing"
	"golang.org/x/oauth2"
)

// fakeConsole adds provider selection and status lines to a scripted operator.
type fakeConsole struct {
	*tu.ScriptedOperator

	choice   int
	chooseOK bool
	titles   []string
	statuses []string

	// interruptOnShow simulates ctrl+c in the first candidate picker.
	interruptOnShow bool
	interrupt       func()
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{ScriptedOperator: &tu.ScriptedOperator{}}
}

func (f *fakeConsole) Choose(ctx context.Context, title string, options []string) (int, bool) {
	f.titles = append(f.titles, title)
	return f.choice, f.chooseOK
}

func (f *fakeConsole) ShowCandidates(ctx context.Context, req models.TrackRequest, query string, candidates []models.Candidate) (int, bool) {
	if f.interruptOnShow && f.interrupt != nil {
		f.interruptOnShow = false
		f.interrupt()
		return 0, false
	}
	return f.ScriptedOperator.ShowCandidates(ctx, req, query, candidates)
}

func (f *fakeConsole) Status(message string) { f.statuses = append(f.statuses, message) }
func (f *fakeConsole) OnInterrupt(fn func())  { f.interrupt = fn }

type testEnv struct {
	dir      string
	config   *shared.Config
	console  *fakeConsole
	provider *tu.MockProvider
	output   *bytes.Buffer
	runner   *Runner
	connects []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "history.db")
	config.Credentials.Spotify.TokenPath = filepath.Join(dir, "spotify_token.json")

	env := &testEnv{
		dir:      dir,
		config:   config,
		console:  newFakeConsole(),
		provider: tu.NewMockProvider(),
		output:   &bytes.Buffer{},
	}
	env.provider.ProviderName = services.SpotifyName

	env.runner = NewRunner(RunnerOpts{
		Config:  config,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  env.output,
		Console: env.console,
		Connect: func(ctx context.Context, config *shared.Config, name string) (services.Provider, error) {
			env.connects = append(env.connects, name)
			env.provider.ProviderName = name
			return env.provider, nil
		},
	})
	return env
}

func (e *testEnv) run(args ...string) error {
	return e.runner.app().Run(context.Background(), append([]string{"playsheet"}, args...))
}

func (e *testEnv) writeSheet(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write sheet: %v", err)
	}
	return path
}

const testSheet = "Queen,Bohemian Rhapsody\nUnknown Artist,Nonexistent Song\n"

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Console: newFakeConsole()})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Console: newFakeConsole()})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil console uses the terminal", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.console == nil {
				t.Error("expected terminal console to be set")
			}
		})

		t.Run("with nil connect uses OAuth providers", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Console: newFakeConsole()})

			if runner.connect == nil {
				t.Error("expected provider factory to be set")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		names := map[string]bool{}
		for _, c := range NewRunner(RunnerOpts{Console: newFakeConsole()}).register() {
			names[c.Name] = true
		}
		for _, want := range []string{"import", "auth", "sheet", "history", "setup"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing required file is a config error", func(t *testing.T) {
			env := newTestEnv(t)
			env.runner.config = nil

			err := env.run("--config", filepath.Join(env.dir, "missing.toml"), "auth", "spotify")
			if !errors.Is(err, shared.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})

		t.Run("missing optional file uses defaults", func(t *testing.T) {
			env := newTestEnv(t)
			env.runner.config = nil
			t.Setenv("HOME", env.dir)
			t.Setenv(shared.EnvSpotifyClientID, "from-env")

			if err := env.run("--config", filepath.Join(env.dir, "missing.toml"), "--env", "", "history", "list"); err != nil {
				t.Fatalf("history list failed: %v", err)
			}
			if env.runner.config == nil {
				t.Fatal("expected defaults to be loaded")
			}
			if env.runner.config.Credentials.Spotify.ClientID != "from-env" {
				t.Error("expected environment override to be applied")
			}
		})

		t.Run("reads the file and env overrides", func(t *testing.T) {
			env := newTestEnv(t)
			env.runner.config = nil

			path := filepath.Join(env.dir, "config.toml")
			content := fmt.Sprintf("[database]\npath = %q\n[import]\nmax_results = 3\n", env.config.Database.Path)
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			envFile := filepath.Join(env.dir, ".env")
			if err := os.WriteFile(envFile, []byte(shared.EnvSpotifyClientSecret+"=dotenv-secret\n"), 0600); err != nil {
				t.Fatalf("failed to write env file: %v", err)
			}
			t.Cleanup(func() { os.Unsetenv(shared.EnvSpotifyClientSecret) })

			if err := env.run("--config", path, "--env", envFile, "history", "list"); err != nil {
				t.Fatalf("history list failed: %v", err)
			}

			got := env.runner.config
			if got.Import.MaxResults != 3 {
				t.Errorf("expected max_results 3, got %d", got.Import.MaxResults)
			}
			if got.Credentials.Spotify.ClientSecret != "dotenv-secret" {
				t.Errorf("expected .env override, got %q", got.Credentials.Spotify.ClientSecret)
			}
		})
	})
}

func TestImport(t *testing.T) {
	t.Run("adds picked candidates and reports skips", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.Results["Queen Bohemian Rhapsody"] = tu.Candidates("queen", 2)
		env.console.Picks = []tu.Pick{{Index: 1, OK: true}}

		sheetPath := env.writeSheet(t, "songs.csv", testSheet)
		reportPath := filepath.Join(env.dir, "out", "report.md")
		logger := env.runner.logger

		err := env.run("import",
			"--provider", "spotify",
			"--name", "Road Trip",
			"--report", reportPath,
			"--log-file", filepath.Join(env.dir, "import.log"),
			sheetPath,
		)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}

		if len(env.provider.Creates) != 1 || env.provider.Creates[0] != "Road Trip" {
			t.Errorf("expected one playlist named Road Trip, got %v", env.provider.Creates)
		}
		if len(env.provider.Added) != 1 || env.provider.Added[0] != "queen-1" {
			t.Errorf("expected queen-1 to be added, got %v", env.provider.Added)
		}

		notices := strings.Join(env.console.Notices, "\n")
		if !strings.Contains(notices, "Skipped songs: Unknown Artist Nonexistent Song") {
			t.Errorf("expected skipped report notice, got %q", notices)
		}

		output := env.output.String()
		for _, want := range []string{"Spotify playlist: Road Trip", "Added:    1/2", "Skipped:  1", "Recorded as import #1", reportPath} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}

		tu.AssertFileExists(t, reportPath)
		if !strings.Contains(tu.MustReadFile(t, reportPath), "Unknown Artist Nonexistent Song") {
			t.Error("expected report to list the skipped query")
		}
		tu.AssertFileExists(t, filepath.Join(env.dir, "import.log"))
		if env.runner.logger != logger {
			t.Error("expected the file logger to be released when the import returns")
		}

		if len(env.console.statuses) == 0 {
			t.Error("expected progress lines on the console")
		}
	})

	t.Run("prompts for provider and YouTube description", func(t *testing.T) {
		env := newTestEnv(t)
		env.console.choice, env.console.chooseOK = 1, true
		env.console.Edits = []tu.Edit{{Text: "Songs from the sheet", OK: true}}

		sheetPath := env.writeSheet(t, "songs.tsv", "Queen\tBohemian Rhapsody\n")
		err := env.run("import", "--name", "Mix", "--no-history", "--log-file", filepath.Join(env.dir, "import.log"), sheetPath)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}

		if len(env.connects) != 1 || env.connects[0] != services.YouTubeName {
			t.Errorf("expected YouTube to be connected, got %v", env.connects)
		}
		if len(env.console.Prompts) != 1 || env.console.Prompts[0] != "Description of playlist" {
			t.Errorf("expected description prompt, got %v", env.console.Prompts)
		}
		if _, err := os.Stat(env.config.Database.Path); !os.IsNotExist(err) {
			t.Error("--no-history should not create the history database")
		}
	})

	t.Run("cancelled provider choice", func(t *testing.T) {
		env := newTestEnv(t)
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		err := env.run("import", sheetPath)
		if !errors.Is(err, shared.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
		if exitCode(err) != exitOK {
			t.Errorf("expected exit code 0, got %d", exitCode(err))
		}
		if len(env.connects) != 0 {
			t.Error("no provider should be connected")
		}
	})

	t.Run("load failure happens before any remote call", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("import", "--provider", "spotify", filepath.Join(env.dir, "missing.xlsx"))
		if !errors.Is(err, shared.ErrLoad) {
			t.Fatalf("expected ErrLoad, got %v", err)
		}
		if exitCode(err) != exitLoad {
			t.Errorf("expected exit code %d, got %d", exitLoad, exitCode(err))
		}
		if len(env.connects) != 0 {
			t.Error("no provider should be connected")
		}
	})

	t.Run("unsupported report format", func(t *testing.T) {
		env := newTestEnv(t)
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		err := env.run("import", "--provider", "spotify", "--report", "report.xlsx", sheetPath)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if len(env.connects) != 0 {
			t.Error("no provider should be connected")
		}
	})

	t.Run("unknown provider flag", func(t *testing.T) {
		env := newTestEnv(t)
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		err := env.run("import", "--provider", "tidal", sheetPath)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("playlist creation failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.CreateErr = shared.NewOpError("create playlist", shared.ErrWrite, errors.New("quota exceeded"))
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		err := env.run("import", "--provider", "spotify", "--name", "Mix", "--log-file", filepath.Join(env.dir, "import.log"), sheetPath)
		if exitCode(err) != exitWrite {
			t.Errorf("expected exit code %d, got %d (%v)", exitWrite, exitCode(err), err)
		}
		if len(env.provider.Added) != 0 {
			t.Error("nothing should be added")
		}
	})

	t.Run("interrupt keeps the partial result", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.Results["Queen Bohemian Rhapsody"] = tu.Candidates("queen", 1)
		env.console.interruptOnShow = true
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		err := env.run("import", "--provider", "spotify", "--name", "Mix", "--log-file", filepath.Join(env.dir, "import.log"), sheetPath)
		if !errors.Is(err, shared.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
		if exitCode(err) != exitOK {
			t.Errorf("expected exit code 0, got %d", exitCode(err))
		}

		if len(env.provider.Searches) != 1 {
			t.Errorf("expected the second row to be left alone, got searches %v", env.provider.Searches)
		}
		output := env.output.String()
		if !strings.Contains(output, "Added:    0/0") || !strings.Contains(output, "Skipped:  0") {
			t.Errorf("expected partial summary, got:\n%s", output)
		}
		if strings.Contains(output, "✗") {
			t.Errorf("expected the interrupted row to stay out of the skipped list, got:\n%s", output)
		}
		if len(env.console.Errors) == 0 {
			t.Error("expected interruption to be reported")
		}
	})
}

func TestSheetPreview(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		env := newTestEnv(t)
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		if err := env.run("sheet", "preview", sheetPath); err != nil {
			t.Fatalf("preview failed: %v", err)
		}

		output := env.output.String()
		for _, want := range []string{"(csv)", "1  Queen - Bohemian Rhapsody", "2  Unknown Artist - Nonexistent Song", "2 tracks"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t)
		sheetPath := env.writeSheet(t, "songs.csv", testSheet)

		if err := env.run("sheet", "preview", "--json", sheetPath); err != nil {
			t.Fatalf("preview failed: %v", err)
		}

		var requests []models.TrackRequest
		if err := json.Unmarshal(env.output.Bytes(), &requests); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(requests) != 2 || requests[1].Artist != "Unknown Artist" || requests[1].Row != 2 {
			t.Errorf("unexpected requests %+v", requests)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("sheet", "preview"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	env.provider.Results["Queen Bohemian Rhapsody"] = tu.Candidates("queen", 1)
	env.console.Picks = []tu.Pick{{Index: 0, OK: true}}
	sheetPath := env.writeSheet(t, "songs.csv", testSheet)

	if err := env.run("import", "--provider", "spotify", "--name", "Road Trip", "--log-file", filepath.Join(env.dir, "import.log"), sheetPath); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "list"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}

		output := env.output.String()
		if !strings.Contains(output, "Road Trip") || !strings.Contains(output, "1/2") {
			t.Errorf("expected run in listing, got:\n%s", output)
		}
	})

	t.Run("list by provider", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "list", "--provider", "youtube"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "No imports recorded yet.") {
			t.Errorf("expected no YouTube runs, got:\n%s", env.output.String())
		}
	})

	t.Run("show json", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "show", "--json", "#1"); err != nil {
			t.Fatalf("history show failed: %v", err)
		}

		var doc struct {
			Provider string   `json:"provider"`
			Skipped  []string `json:"skipped"`
			Outcomes []struct {
				ItemID string `json:"item_id"`
				Kind   string `json:"kind"`
			} `json:"outcomes"`
		}
		if err := json.Unmarshal(env.output.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Provider != services.SpotifyName || len(doc.Outcomes) != 2 {
			t.Errorf("unexpected document %+v", doc)
		}
		if doc.Outcomes[0].ItemID != "queen-0" || doc.Outcomes[1].Kind != "skipped" {
			t.Errorf("unexpected outcomes %+v", doc.Outcomes)
		}
	})

	t.Run("show text", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "show", "1"); err != nil {
			t.Fatalf("history show failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Playlist: Road Trip") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("show unknown", func(t *testing.T) {
		if err := env.run("history", "show", "#42"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "delete", "1"); err != nil {
			t.Fatalf("history delete failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Deleted import #1") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
		if err := env.run("history", "show", "1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("deleted import should not be found, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "conf", "config.toml")

		if err := env.run("--config", path, "setup", "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("written config should load: %v", err)
		}

		if err := env.run("--config", path, "setup", "config"); !errors.Is(err, shared.ErrConfig) {
			t.Errorf("expected ErrConfig when the file exists, got %v", err)
		}
	})

	t.Run("database", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, env.config.Database.Path)
	})
}

func TestAuth(t *testing.T) {
	withSpotify := func(env *testEnv) {
		env.config.Credentials.Spotify.ClientID = "client"
		env.config.Credentials.Spotify.ClientSecret = "secret"
	}

	t.Run("stores the consented token", func(t *testing.T) {
		env := newTestEnv(t)
		withSpotify(env)
		env.runner.consent = func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}, nil
		}

		if err := env.run("auth", "spotify"); err != nil {
			t.Fatalf("auth failed: %v", err)
		}
		tu.AssertFileExists(t, env.config.Credentials.Spotify.TokenPath)
		if !strings.Contains(env.output.String(), "Authenticated with Spotify") {
			t.Errorf("unexpected output: %s", env.output.String())
		}
	})

	t.Run("consent failure", func(t *testing.T) {
		env := newTestEnv(t)
		withSpotify(env)
		env.runner.consent = func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
			return nil, errors.New("access_denied")
		}

		err := env.run("auth", "spotify")
		if exitCode(err) != exitAuth {
			t.Errorf("expected exit code %d, got %d (%v)", exitAuth, exitCode(err), err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("auth", "spotify")
		if exitCode(err) != exitConfig {
			t.Errorf("expected exit code %d, got %d (%v)", exitConfig, exitCode(err), err)
		}
	})

	t.Run("missing provider", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("auth"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("connect reuses a stored token", func(t *testing.T) {
		env := newTestEnv(t)
		withSpotify(env)
		store := services.FileTokenStore{Path: env.config.Credentials.Spotify.TokenPath}
		if err := store.Save(&oauth2.Token{AccessToken: "stored", Expiry: time.Now().Add(time.Hour)}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}
		env.runner.consent = func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
			t.Error("consent should not run when a valid token is stored")
			return nil, errors.New("unexpected consent")
		}

		provider, err := env.runner.connectProvider(context.Background(), env.config, services.SpotifyName)
		if err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if provider.Name() != services.SpotifyName {
			t.Errorf("expected Spotify provider, got %s", provider.Name())
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"cancelled", shared.NewOpError("import", shared.ErrCancelled, nil), exitOK},
		{"config", fmt.Errorf("%w: missing", shared.ErrConfig), exitConfig},
		{"auth", shared.NewOpError("Spotify login", shared.ErrAuth, errors.New("denied")), exitAuth},
		{"load", shared.NewOpError("load songs.xlsx", shared.ErrLoad, os.ErrNotExist), exitLoad},
		{"write", shared.NewOpError("create playlist", shared.ErrWrite, errors.New("boom")), exitWrite},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"spotify", services.SpotifyName, nil},
		{"Spotify", services.SpotifyName, nil},
		{"yt", services.YouTubeName, nil},
		{" youtube ", services.YouTubeName, nil},
		{"", "", shared.ErrMissingArgument},
		{"tidal", "", shared.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseProvider(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseProvider(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

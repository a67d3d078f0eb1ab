package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/playsheet/internal/shared"
)

type youtubeFake struct {
	searchParams map[string]string
	playlist     map[string]any
	item         map[string]any
	fail         bool
}

func (f *youtubeFake) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	fail := func(w http.ResponseWriter) bool {
		if !f.fail {
			return false
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
		return true
	}

	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		if fail(w) {
			return
		}
		q := r.URL.Query()
		f.searchParams = map[string]string{"q": q.Get("q"), "type": q.Get("type"), "part": q.Get("part"), "maxResults": q.Get("maxResults")}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"id":{"kind":"youtube#video","videoId":"v1"},
			 "snippet":{"title":"Queen &amp; Bowie - Under Pressure","channelTitle":"Queen Official",
			 "thumbnails":{"default":{"url":"https://i/default"},"high":{"url":"https://i/high"}}}},
			{"id":{"kind":"youtube#video","videoId":"v2"},
			 "snippet":{"title":"Under Pressure (Live)","channelTitle":"Fan","thumbnails":{"default":{"url":"https://i/default2"}}}}
		]}`))
	})

	mux.HandleFunc("/youtube/v3/playlists", func(w http.ResponseWriter, r *http.Request) {
		if fail(w) {
			return
		}
		json.NewDecoder(r.Body).Decode(&f.playlist)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"PL123","snippet":{"title":"Road Trip"}}`))
	})

	mux.HandleFunc("/youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if fail(w) {
			return
		}
		json.NewDecoder(r.Body).Decode(&f.item)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"item1"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestYouTubeProvider(t *testing.T) {
	ctx := context.Background()

	newProvider := func(t *testing.T, f *youtubeFake) *YouTubeProvider {
		srv := f.server(t)
		p, err := NewYouTubeProvider(ctx, newTestSession(t), Options{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, nil)
		if err != nil {
			t.Fatalf("failed to create provider: %v", err)
		}
		return p
	}

	t.Run("Search", func(t *testing.T) {
		f := &youtubeFake{}
		got, err := newProvider(t, f).Search(ctx, "Queen Under Pressure", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if f.searchParams["q"] != "Queen Under Pressure" || f.searchParams["type"] != "video" ||
			f.searchParams["part"] != "snippet" || f.searchParams["maxResults"] != "5" {
			t.Errorf("unexpected search params %v", f.searchParams)
		}

		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(got))
		}
		if got[0].ID != "v1" || got[0].Title != "Queen & Bowie - Under Pressure" || got[0].Subtitle != "Queen Official" {
			t.Errorf("unexpected first candidate %+v", got[0])
		}
		if got[0].ThumbnailURL != "https://i/high" {
			t.Errorf("expected high thumbnail, got %q", got[0].ThumbnailURL)
		}
		if got[1].ThumbnailURL != "https://i/default2" {
			t.Errorf("expected default thumbnail fallback, got %q", got[1].ThumbnailURL)
		}
	})

	t.Run("Search Failure", func(t *testing.T) {
		_, err := newProvider(t, &youtubeFake{fail: true}).Search(ctx, "Queen", 5)
		if !errors.Is(err, shared.ErrSearch) {
			t.Errorf("expected ErrSearch, got %v", err)
		}
	})

	t.Run("Token Refresh Timeout", func(t *testing.T) {
		srv := (&youtubeFake{}).server(t)
		p, err := NewYouTubeProvider(ctx, newStalledSession(t), Options{BaseURL: srv.URL + "/", Timeout: 100 * time.Millisecond}, nil)
		if err != nil {
			t.Fatalf("failed to create provider: %v", err)
		}

		err = waitErr(t, 5*time.Second, func() error {
			_, err := p.CreatePlaylist(ctx, "Road Trip", "")
			return err
		})
		if !errors.Is(err, shared.ErrWrite) || !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrWrite wrapping ErrTimeout, got %v", err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		f := &youtubeFake{}
		got, err := newProvider(t, f).CreatePlaylist(ctx, "Road Trip", "Songs for the drive")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != "PL123" || got.URL != "https://www.youtube.com/playlist?list=PL123" {
			t.Errorf("unexpected handle %+v", got)
		}

		snippet, _ := f.playlist["snippet"].(map[string]any)
		status, _ := f.playlist["status"].(map[string]any)
		if snippet["title"] != "Road Trip" || snippet["description"] != "Songs for the drive" {
			t.Errorf("unexpected snippet %v", snippet)
		}
		if status["privacyStatus"] != "public" {
			t.Errorf("expected default privacy status, got %v", status)
		}
	})

	t.Run("CreatePlaylist Failure", func(t *testing.T) {
		_, err := newProvider(t, &youtubeFake{fail: true}).CreatePlaylist(ctx, "Road Trip", "")
		if !errors.Is(err, shared.ErrWrite) {
			t.Errorf("expected ErrWrite, got %v", err)
		}
	})

	t.Run("AddItem", func(t *testing.T) {
		f := &youtubeFake{}
		if err := newProvider(t, f).AddItem(ctx, "PL123", "v1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		snippet, _ := f.item["snippet"].(map[string]any)
		resource, _ := snippet["resourceId"].(map[string]any)
		if snippet["playlistId"] != "PL123" || resource["kind"] != "youtube#video" || resource["videoId"] != "v1" {
			t.Errorf("unexpected playlist item %v", f.item)
		}
	})

	t.Run("AddItem Failure", func(t *testing.T) {
		err := newProvider(t, &youtubeFake{fail: true}).AddItem(ctx, "PL123", "v1")
		if !errors.Is(err, shared.ErrWrite) {
			t.Errorf("expected ErrWrite, got %v", err)
		}
	})
}

func TestNewYouTubeConfig(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.json")
		secrets := `{"installed":{"client_id":"cid","client_secret":"cs","redirect_uris":["http://localhost"],
			"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
		if err := os.WriteFile(path, []byte(secrets), 0600); err != nil {
			t.Fatal(err)
		}

		cfg, err := NewYouTubeConfig(shared.YouTubeConfig{ClientSecretsPath: path, Scope: "https://www.googleapis.com/auth/youtube.force-ssl"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.ClientID != "cid" || cfg.Endpoint.TokenURL != "https://oauth2.googleapis.com/token" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.json")
		os.WriteFile(path, []byte(`{"nope":true}`), 0600)

		_, err := NewYouTubeConfig(shared.YouTubeConfig{ClientSecretsPath: path, Scope: "s"})
		if !errors.Is(err, shared.ErrConfig) {
			t.Errorf("expected ErrConfig, got %v", err)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := NewYouTubeConfig(shared.YouTubeConfig{ClientSecretsPath: filepath.Join(t.TempDir(), "missing.json"), Scope: "s"})
		if !errors.Is(err, shared.ErrConfig) {
			t.Errorf("expected ErrConfig, got %v", err)
		}
	})
}

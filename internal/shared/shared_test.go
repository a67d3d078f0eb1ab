package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpError(t *testing.T) {
	cause := errors.New("status 500")
	err := fmt.Errorf("resolving row 3: %w", NewOpError(`search "Queen Bohemian Rhapsody"`, ErrSearch, cause))

	if !errors.Is(err, ErrSearch) {
		t.Error("expected error to match ErrSearch")
	}
	if !errors.Is(err, cause) {
		t.Error("expected error to match its cause")
	}
	if errors.Is(err, ErrWrite) {
		t.Error("did not expect ErrWrite")
	}
	if got := Operation(err); got != `search "Queen Bohemian Rhapsody"` {
		t.Errorf("unexpected operation %q", got)
	}
	if !strings.Contains(err.Error(), "search failed: status 500") {
		t.Errorf("unexpected message %q", err.Error())
	}

	bare := NewOpError("create playlist", ErrWrite, nil)
	if bare.Error() != "create playlist: playlist write failed" {
		t.Errorf("unexpected message %q", bare.Error())
	}
	if Operation(errors.New("plain")) != "" {
		t.Error("expected empty operation for plain errors")
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, _ := GenerateState()

	if a == b {
		t.Error("expected distinct state tokens")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe, got %s", a)
	}
}

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{"darwin", "open", false},
		{"linux", "xdg-open", false},
		{"windows", "rundll32", false},
		{"plan9", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, "https://example.com")
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, name)
			}
			if !tt.wantErr && args[len(args)-1] != "https://example.com" {
				t.Errorf("expected url as last argument, got %v", args)
			}
		})
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "playsheet.log")

	logger, closer, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	logger.Info("hello", "key", "value")

	if err := closer.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := closer.Close(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected the log file to be closed, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "key=value") {
		t.Errorf("expected logfmt output, got %s", data)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("unexpected expansion %s", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path should be unchanged, got %s", got)
	}
}

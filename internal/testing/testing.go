// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/playsheet/internal/models"
)

// MockProvider is a scripted test double for [services.Provider].
//
// Searches are answered from Results by query; queries without an entry find nothing.
type MockProvider struct {
	ProviderName string
	Results      map[string][]models.Candidate
	SearchErrs   map[string]error // SearchErrs fail a query every time it is searched
	AddErrs      map[string]error // AddErrs fail adding an item every time it is added
	CreateErr    error

	Searches   []string
	Creates    []string // names passed to CreatePlaylist
	Added      []string // item IDs in append order
	PlaylistID string
}

// NewMockProvider creates a provider named "Mock" that owns playlist "pl-1".
func NewMockProvider() *MockProvider {
	return &MockProvider{
		ProviderName: "Mock",
		Results:      map[string][]models.Candidate{},
		SearchErrs:   map[string]error{},
		AddErrs:      map[string]error{},
		PlaylistID:   "pl-1",
	}
}

func (m *MockProvider) Name() string { return m.ProviderName }

func (m *MockProvider) Search(ctx context.Context, query string, maxResults int) ([]models.Candidate, error) {
	m.Searches = append(m.Searches, query)
	if err := m.SearchErrs[query]; err != nil {
		return nil, err
	}
	results := m.Results[query]
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, name, description string) (*models.PlaylistHandle, error) {
	m.Creates = append(m.Creates, name)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return &models.PlaylistHandle{ID: m.PlaylistID, Name: name}, nil
}

func (m *MockProvider) AddItem(ctx context.Context, playlistID, itemID string) error {
	if playlistID != m.PlaylistID {
		return fmt.Errorf("unknown playlist %s", playlistID)
	}
	if err := m.AddErrs[itemID]; err != nil {
		return err
	}
	m.Added = append(m.Added, itemID)
	return nil
}

// Candidates returns n candidates with IDs "{prefix}-0" through "{prefix}-{n-1}".
func Candidates(prefix string, n int) []models.Candidate {
	out := make([]models.Candidate, n)
	for i := range out {
		out[i] = models.Candidate{ID: fmt.Sprintf("%s-%d", prefix, i), Title: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

// Pick is a scripted answer to ShowCandidates. OK false means declined.
type Pick struct {
	Index int
	OK    bool
}

// Edit is a scripted answer to EditText. OK false means cancelled.
type Edit struct {
	Text string
	OK   bool
}

// ScriptedOperator answers prompts from queues and records every interaction.
//
// An exhausted queue declines, answers no, or cancels.
type ScriptedOperator struct {
	Picks    []Pick
	Confirms []bool
	Edits    []Edit

	Shown     []string // queries presented with ShowCandidates
	Questions []string
	Prompts   []string // labels passed to EditText
	Initials  []string // initial values passed to EditText
	Notices   []string
	Errors    []string
}

func (o *ScriptedOperator) ShowCandidates(ctx context.Context, req models.TrackRequest, query string, candidates []models.Candidate) (int, bool) {
	o.Shown = append(o.Shown, query)
	if len(o.Picks) == 0 {
		return 0, false
	}
	p := o.Picks[0]
	o.Picks = o.Picks[1:]
	return p.Index, p.OK
}

func (o *ScriptedOperator) Confirm(ctx context.Context, question string) bool {
	o.Questions = append(o.Questions, question)
	if len(o.Confirms) == 0 {
		return false
	}
	c := o.Confirms[0]
	o.Confirms = o.Confirms[1:]
	return c
}

func (o *ScriptedOperator) EditText(ctx context.Context, label, initial string) (string, bool) {
	o.Prompts = append(o.Prompts, label)
	o.Initials = append(o.Initials, initial)
	if len(o.Edits) == 0 {
		return "", false
	}
	e := o.Edits[0]
	o.Edits = o.Edits[1:]
	return e.Text, e.OK
}

func (o *ScriptedOperator) Notify(ctx context.Context, message string) {
	o.Notices = append(o.Notices, message)
}

func (o *ScriptedOperator) Error(ctx context.Context, message string) {
	o.Errors = append(o.Errors, message)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

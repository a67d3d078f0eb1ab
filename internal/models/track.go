package models

import (
	"fmt"
	"strings"
)

// TrackRequest is one spreadsheet row. Row is the 1-based row number in the source file.
type TrackRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Row    int    `json:"row"`
}

// Query returns the initial search text, "{artist} {title}".
func (r TrackRequest) Query() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", r.Artist, r.Title))
}

// String renders the request as "artist - title".
func (r TrackRequest) String() string {
	switch {
	case r.Artist == "":
		return r.Title
	case r.Title == "":
		return r.Artist
	default:
		return r.Artist + " - " + r.Title
	}
}

// Candidate is a search result offered to the operator.
//
// ID is what the provider expects when adding the item to a playlist.
type Candidate struct {
	ID           string `json:"id"`
	URI          string `json:"uri,omitempty"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Label is the display name of the candidate, "title - subtitle".
func (c Candidate) Label() string {
	if c.Subtitle == "" {
		return c.Title
	}
	return c.Title + " - " + c.Subtitle
}

// OutcomeKind is the terminal state of a resolution.
type OutcomeKind int

const (
	Skipped OutcomeKind = iota
	Added
)

func (k OutcomeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Skipped:
		return "skipped"
	default:
		return ""
	}
}

// ParseOutcomeKind is the inverse of [OutcomeKind.String].
func ParseOutcomeKind(s string) (OutcomeKind, error) {
	switch s {
	case "added":
		return Added, nil
	case "skipped":
		return Skipped, nil
	default:
		return Skipped, fmt.Errorf("unknown outcome kind %q", s)
	}
}

// Outcome is the result of resolving one [TrackRequest].
//
// Query is the last query searched: the one that produced the added item, or the one reported when skipped.
type Outcome struct {
	Request  TrackRequest `json:"request"`
	Kind     OutcomeKind  `json:"-"`
	ItemID   string       `json:"item_id,omitempty"`
	Query    string       `json:"query"`
	Attempts int          `json:"attempts"`
}

// AddedOutcome builds an [Added] outcome.
func AddedOutcome(req TrackRequest, itemID, query string, attempts int) Outcome {
	return Outcome{Request: req, Kind: Added, ItemID: itemID, Query: query, Attempts: attempts}
}

// SkippedOutcome builds a [Skipped] outcome.
func SkippedOutcome(req TrackRequest, query string, attempts int) Outcome {
	return Outcome{Request: req, Kind: Skipped, Query: query, Attempts: attempts}
}

// SkippedReport lists the final queries of skipped requests in processing order.
type SkippedReport []string

// String joins the queries the way they are presented to the operator.
func (s SkippedReport) String() string {
	return strings.Join(s, ", ")
}

// PlaylistHandle identifies the playlist created for a run.
type PlaylistHandle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

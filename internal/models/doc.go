// Package models defines the domain types of a spreadsheet-to-playlist import.
//
// The package contains two categories of types:
//
// 1. Import values: created while a run is in progress and never mutated afterwards
//   - [TrackRequest] : One spreadsheet row (artist, title)
//   - [Candidate] : One ranked search result offered to the operator
//   - [Outcome] : The terminal result of resolving one request (added or skipped)
//   - [PlaylistHandle] : The destination playlist created once per run
//
// 2. Persistent Entities: Database-backed records of finished runs
//   - [ImportRun] : Summary and per-row outcomes of one import
//
// Persistent entities implement the [Model] interface; [Repository] defines standard CRUD operations for database access.
package models

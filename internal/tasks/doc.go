// Package tasks drives an interactive spreadsheet import against a [services.Provider].
//
// # Core Operations
//
//  1. [Resolver.Resolve] : resolve one track request
//     - Searches with "{artist} {title}"
//     - Presents the candidates in provider order
//     - On decline asks whether to search again, then lets the operator edit the query
//     - Ends with exactly one outcome: Added or Skipped
//
//  2. [Importer.Run] : build a playlist from all requests
//     - Collects the playlist name (and description when asked to)
//     - Creates the playlist exactly once, before any search
//     - Resolves every request in order and presents the skipped report
//
// # Operator
//
// All human interaction goes through the [Operator] interface. Calls block until the operator answers.
// Closing a prompt is reported the same way as declining it.
//
// # Errors
//
// Search and add-item failures never abort a run. They are shown with [Operator.Error] and fall through to the
// "search again?" question. Playlist creation failures abort the run before any search.
//
// # Progress Reporting
//
// [ProgressUpdate] values are delivered synchronously to the optional progress hook of an [Importer].
package tasks

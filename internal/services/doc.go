// Package services defines the [Provider] interface for music catalogs and implements it for Spotify and YouTube.
//
// # Provider Interface
//
// An import only needs four operations from a catalog: search, create a playlist, append to it, and a display name.
// The resolution workflow in internal/tasks is written against [Provider] and never sees provider SDK types.
//
// # Sessions
//
// Both providers authenticate through a [Session], which owns the [oauth2.Config], the current token and a [TokenStore].
// [Session.Login] loads a stored token or runs the browser consent flow once.
// Providers call [Session.EnsureValid] before every remote call; it refreshes the access token only when it has
// expired and a refresh token is present, then persists the new token.
//
// # Spotify Implementation
//
// [SpotifyProvider] uses github.com/zmb3/spotify/v2. Searches are track searches scoped to the configured market.
// Creating a playlist resolves the current user first.
//
// # YouTube Implementation
//
// [YouTubeProvider] uses the generated google.golang.org/api/youtube/v3 client.
// Searches are restricted to videos and playlists are created with the configured privacy status.
//
// # Error Handling
//
// Remote failures are returned as [shared.OpError] values classified as:
//   - [shared.ErrAuth] : login or token refresh failed
//   - [shared.ErrSearch] : a search call failed
//   - [shared.ErrWrite] : playlist creation or item insertion failed
//
// Calls that exceed [Options.Timeout] additionally match [shared.ErrTimeout].
package services

// Package services implements the external collaborators MelodyMind talks to.
//
// # Playlist Source
//
// [SpotifySource] implements [Source] on top of github.com/zmb3/spotify/v2. [SpotifyAuth] drives the
// authorization code flow; the client it hands out refreshes tokens on its own.
//
// # Playlist Destination
//
// [YouTubeMusic] implements [Destination] by calling the YouTube Music proxy (a small HTTP service
// wrapping ytmusicapi). [Destination.Authenticate] binds a token bundle to a [DestinationSession];
// every call carries the bundle as a bearer token.
//
// The proxy endpoints used are:
//
//	GET  /api/library/liked-songs?limit=1   probe
//	POST /api/playlists                     create
//	GET  /api/search?q=&filter=songs        search
//	POST /api/playlists/{id}/items          batch add
//
// A 401 or 403 from the proxy maps to [shared.ErrAuthExpired].
//
// # Lyrics, Embeddings and Generation
//
// [GeniusProvider] finds songs through the Genius search API and scrapes the lyrics containers
// from the song page with goquery. [GeminiClient] serves both structured JSON generation and
// batch text embedding.
//
// # Tokens
//
// [FileTokenStore] keeps one OAuth2 token per session in a 0600 JSON file.
package services

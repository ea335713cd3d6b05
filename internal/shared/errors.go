package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthExpired      = fmt.Errorf("AUTH_EXPIRED")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrDestinationAPI     = fmt.Errorf("destination API error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Trivia errors
	ErrLyricsNotFound    = fmt.Errorf("lyrics not found")
	ErrEmbeddingFailure  = fmt.Errorf("embedding failed")
	ErrSynthesisParse    = fmt.Errorf("could not parse generated question")
	ErrStoreUnavailable  = fmt.Errorf("lyric store unavailable")
	ErrDimensionMismatch = fmt.Errorf("embedding dimension mismatch")

	// Transfer errors
	ErrNoMatchFound       = fmt.Errorf("no match found")
	ErrTransferNotFound   = fmt.Errorf("transfer not found")
	ErrTransferInProgress = fmt.Errorf("transfer already in progress")
	ErrTransferCancelled  = fmt.Errorf("transfer cancelled")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

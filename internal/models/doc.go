// Package models defines the domain entities shared by the trivia and transfer engines.
//
// Trivia types:
//   - [LyricChunk] : a 4-line lyric window with its embedding, the atomic retrieval unit
//   - [ChunkFilter] / [ScoredChunk] : store query inputs and nearest-neighbour results
//   - [QuizQuestion] : a validated multiple-choice question tagged with a [Difficulty]
//
// Transfer types:
//   - [TrackRef] : title plus primary artist, the unit of work for both engines
//   - [MatchCandidate] : one destination search result
//   - [TransferStatus] : the per-session progress record polled by clients
//   - [TransferRecord] : the persisted outcome of a finished transfer
package models

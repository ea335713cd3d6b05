// Package repositories implements SQLite persistence for lyric chunks, transfer history and track matches.
//
// Key Implementations:
//   - [ChunkRepository] : a lyrics.Store backed by the lyric_chunks table. Embeddings are stored
//     as little-endian float32 BLOBs and searched with a brute-force cosine scan.
//   - [TransferRepository] : finished and failed transfers, recorded by the transfer supervisor.
//   - [MatchCacheRepository] : destination ids of previously matched tracks, consulted before searching.
//
// Transfers carry a human-readable sequence number drawn from a dedicated sequence table via [NextSequence].
package repositories

// Package tasks runs playlist transfers in the background and publishes their progress.
//
// # State Machine
//
// [Transferer.Run] walks a transfer through
//
//	idle → authenticating → playlist_created → matching → batch_adding → completed
//
// with error reachable from every step after authenticating. The destination token is probed
// before any write so an expired login fails fast with AUTH_EXPIRED. Tracks are resolved one at a
// time through the matcher; a track whose search or match fails is skipped. Matched ids are
// written in batches once every track has been examined. A transfer with no tracks goes straight
// from playlist_created to batch_adding.
//
// Partial transfers are not rolled back and nothing is retried.
//
// # Status
//
// Progress lives in a [StatusStore] keyed by session. [MemoryStatusStore] serialises updates per
// key; [RedisStatusStore] uses optimistic WATCH transactions so several processes can share it.
//
// # Supervision
//
// [Supervisor] owns at most one [Task] per session. A Task is a future: [Task.Done] closes when
// the transfer finishes and [Task.Result] reports the outcome. [Task.Cancel] stops the transfer
// before the next track is searched.
//
// # Progress Reporting
//
// Every transition is also sent on an optional [ProgressUpdate] channel. Sends never block; a
// full channel drops the update.
package tasks

// Package lyrics owns lyric chunk storage and the ingestion pipeline that fills it.
//
// # Store
//
// [Store] is the vector store contract: idempotent upsert by chunk id, filtered reads and
// filtered nearest-neighbour queries. [MemoryStore] keeps everything in process;
// repositories.ChunkRepository persists to SQLite.
//
// # Ingestion
//
// [Ingester.Ingest] fetches lyrics from a [Provider], splits them into 4-line windows,
// embeds each window with an [Embedder] and upserts the set. A song that already has any
// stored chunk is skipped without touching the provider.
package lyrics

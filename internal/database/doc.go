// Package database provides the SQLite-backed thumbnail cache store.
//
// The store holds exactly one table:
//
//	thumbnails(cache_key PRIMARY KEY, source_path, source_modified_unix,
//	           thumbnail_blob, mime_type)
//
// An entry is fresh for a file only while its source_modified_unix equals the
// file's current modification time; LookupFresh treats any mismatch as a
// miss. Upsert and UpsertBatch are the only mutation paths. UpsertBatch
// writes a whole generation round inside a single transaction so that the
// round is persisted all-or-nothing with one durability sync.
//
// The database uses WAL mode and a single pooled connection, so every
// access from a process is serialized through that connection.
package database

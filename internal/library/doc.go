// Package library persists the media catalog (movies, TV shows, comics,
// ebooks) in SQLite.
//
// The Store owns the database handle and exposes CRUD plus paginated,
// filterable listing per media kind. Writes retry on SQLITE_BUSY with
// exponential backoff; the schema ships embedded and is version-checked on
// open so a stale database fails fast instead of corrupting rows.
package library

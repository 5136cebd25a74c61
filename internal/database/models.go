package database

// CacheEntry is one persisted thumbnail row.
type CacheEntry struct {
	CacheKey           string
	SourcePath         string
	SourceModifiedUnix int64
	Thumbnail          []byte
	MimeType           string
}

// Thumbnail is the payload returned by a fresh cache hit.
type Thumbnail struct {
	Blob     []byte
	MimeType string
}

// Stats summarizes the contents of the cache store.
type Stats struct {
	Entries    int64  `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Path       string `json:"path"`
}

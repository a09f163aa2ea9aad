package index

// ResourceIndex defines the interface for catalog indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ResourceIndex interface {
	UpsertResource(r ResourceRow, body string, refs []RefRow) error
	DeleteResource(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListResources(typ string, latestOnly bool, limit, offset int) ([]ResourceRow, error)
	VersionsOf(id string) ([]string, error)
	ReferencesTo(id string) ([]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ResourceIndex at compile time.
var _ ResourceIndex = (*DB)(nil)

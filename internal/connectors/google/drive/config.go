package drive

// Config holds Google Drive source configuration.
type Config struct {
	// FolderID is the folder listed when a filter names none. "root" is My Drive.
	FolderID string

	// PageSize is the page size for list requests.
	PageSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FolderID: "root",
		PageSize: 100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FolderID == "" {
		c.FolderID = d.FolderID
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	return c
}

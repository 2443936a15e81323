package config

const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultOpenLibraryURL is the metadata provider used unless overridden
	DefaultOpenLibraryURL = "https://openlibrary.org"
)

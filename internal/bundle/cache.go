package bundle

import "fmt"

// ImportRecord is what one bundle run remembers about a fetched module.
type ImportRecord struct {
	Dependencies []string
	Wrapped      string
}

// ImportCache memoizes fetched modules for the lifetime of one bundle run.
// Every name is read from storage at most once, whether or not the read
// succeeded.
type ImportCache struct {
	scanner   Scanner
	extension string
	records   map[string]*ImportRecord
	missing   map[string]error
}

func NewImportCache(scanner Scanner, extension string) *ImportCache {
	if scanner == nil {
		scanner = NewPatternScanner(nil)
	}
	if extension == "" {
		extension = DefaultExtension
	}
	return &ImportCache{
		scanner:   scanner,
		extension: extension,
		records:   make(map[string]*ImportRecord),
		missing:   make(map[string]error),
	}
}

// Fetch makes sure name is in the cache and reports whether it could be
// loaded.
func (c *ImportCache) Fetch(name string, reader Reader) bool {
	if _, ok := c.records[name]; ok {
		return true
	}
	if _, ok := c.missing[name]; ok {
		return false
	}
	contents, err := readModule(reader, ResolveModule(name, c.extension))
	if err != nil {
		c.missing[name] = err
		return false
	}
	c.records[name] = &ImportRecord{
		Dependencies: c.scanner.Scan(contents),
		Wrapped:      Wrap(name, contents),
	}
	return true
}

// Record returns the cached record for name, if it was fetched successfully.
func (c *ImportCache) Record(name string) (*ImportRecord, bool) {
	record, ok := c.records[name]
	return record, ok
}

// Err returns the read error that made name unresolvable.
func (c *ImportCache) Err(name string) error {
	return c.missing[name]
}

func (c *ImportCache) Len() int {
	return len(c.records)
}

// readModule treats a panicking reader like a failed read.
func readModule(reader Reader, path string) (contents string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("read %s: %v", path, recovered)
		}
	}()
	if reader == nil {
		return "", fmt.Errorf("read %s: no reader configured", path)
	}
	return reader.Read(path)
}

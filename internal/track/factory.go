package track

import "fmt"

// NewStore builds a store by backend name: "memory" (the default when
// kind is empty) or "sqlite". The sqlite backend needs the "sqlite" build
// tag; without it the factory returns an error rather than a store that
// cannot work.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

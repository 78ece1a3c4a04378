//go:build sqlite

package track

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

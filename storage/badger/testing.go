package badger

// NewMemoryLocalStore creates an in-memory LocalStore for testing.
// Caller must close the backend when done.
func NewMemoryLocalStore() (*LocalStore, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewLocalStore(backend), backend, nil
}

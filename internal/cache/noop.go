package cache

import "context"

// NoopStore never stores anything; every Fetch runs its loader.
type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopStore) Set(context.Context, string, []byte) error { return nil }

func (NoopStore) Version(context.Context) (int64, error) { return 0, nil }

func (NoopStore) InvalidateAll(context.Context) error { return nil }

func (NoopStore) Close() error { return nil }

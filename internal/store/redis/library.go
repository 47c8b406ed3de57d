package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/komiku/internal/library"
)

// LibraryPersister stores the library blob under a single key, without expiry.
type LibraryPersister struct {
	client *redis.Client
	key    string
}

func NewLibraryPersister(client *redis.Client, name string) *LibraryPersister {
	return &LibraryPersister{
		client: client,
		key:    LibraryKey(name),
	}
}

func (p *LibraryPersister) Load(ctx context.Context) (library.State, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return library.State{}, library.ErrNotFound
		}
		return library.State{}, fmt.Errorf("failed to get library: %w", err)
	}
	return library.Decode(data)
}

func (p *LibraryPersister) Save(ctx context.Context, state library.State) error {
	data, err := library.Encode(state)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

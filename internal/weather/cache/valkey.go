// Package cache provides shared weather.Store implementations so the API and
// the pre-warm worker can read the same forecasts.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/cragcast/cragcast/internal/weather"
)

// DefaultPrefix namespaces weather keys in Valkey.
const DefaultPrefix = "cragcast:weather"

// ValkeyStore persists weather cache entries in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by client.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// ClientOption builds Valkey client options from either a URL
// (valkey://host:port/0) or a bare host:port address.
func ClientOption(addr string) (valkey.ClientOption, error) {
	if addr == "" {
		return valkey.ClientOption{}, fmt.Errorf("valkey address is empty")
	}
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// Connect creates a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr string) (valkey.Client, error) {
	opt, err := ClientOption(addr)
	if err != nil {
		return nil, fmt.Errorf("parse valkey address: %w", err)
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}
	return client, nil
}

// Get implements weather.Store.
func (s *ValkeyStore) Get(ctx context.Context, key string) (*weather.Entry, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, weather.ErrCacheMiss
		}
		return nil, err
	}
	var entry weather.Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}

// Set implements weather.Store. Valkey expires the key after retention.
func (s *ValkeyStore) Set(ctx context.Context, key string, entry *weather.Entry, retention time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.key(key)).Value(string(payload))
	var cmd valkey.Completed
	if retention > 0 {
		if retention < time.Second {
			retention = time.Second
		}
		cmd = builder.Ex(retention).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Purge implements weather.Store. Keys carry their own expiry, so there is
// nothing to sweep.
func (s *ValkeyStore) Purge(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (s *ValkeyStore) key(key string) string {
	return s.prefix + ":" + key
}

var _ weather.Store = (*ValkeyStore)(nil)

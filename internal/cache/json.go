package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON decodes the value under key into a T. A value that no longer
// decodes is treated as a miss and removed.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T

	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}

	if err := json.Unmarshal(b, &out); err != nil {
		_ = s.Delete(ctx, key)
		return out, false, nil
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return s.Set(ctx, key, b)
}

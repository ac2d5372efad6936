package doicache

import (
	"context"
	"time"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/archival"
)

type expiringCache interface {
	TTL() time.Duration
}

// Tiered reads through a fast front cache to a durable back cache. Back hits
// warm the front only when the back never expires its entries: a warmed entry
// restarts its lifetime in the front.
type Tiered struct {
	front archival.Cache
	back  archival.Cache
	warm  bool
}

// NewTiered layers front over back.
func NewTiered(front, back archival.Cache) *Tiered {
	warm := true
	if expiring, ok := back.(expiringCache); ok && expiring.TTL() > 0 {
		warm = false
	}
	return &Tiered{front: front, back: back, warm: warm}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if body, ok, err := t.front.Get(ctx, key); err == nil && ok {
		return body, true, nil
	}
	body, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if t.warm {
		_ = t.front.Put(ctx, key, body)
	}
	return body, true, nil
}

func (t *Tiered) Put(ctx context.Context, key string, body []byte) error {
	if err := t.back.Put(ctx, key, body); err != nil {
		return err
	}
	return t.front.Put(ctx, key, body)
}

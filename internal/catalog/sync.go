package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"StudioMemories/internal/kv"
)

const syncTimeout = 3 * time.Second

type subscription struct {
	fn   func(key string)
	keys map[string]struct{}
}

func (sub subscription) wants(key string) bool {
	if len(sub.keys) == 0 {
		return true
	}
	_, ok := sub.keys[key]
	return ok
}

// Subscribe registers fn for changes to the given keys, or to every key
// when none are given. fn runs after local mutations and after reloads
// caused by other instances, outside the store lock.
func (s *Store) Subscribe(fn func(key string), keys ...string) (unsubscribe func()) {
	sub := subscription{fn: fn}
	if len(keys) > 0 {
		sub.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			sub.keys[k] = struct{}{}
		}
	}

	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = sub
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(keys ...string) {
	s.subMu.Lock()
	subs := make([]subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()

	for _, key := range keys {
		for _, sub := range subs {
			if sub.wants(key) {
				sub.fn(key)
			}
		}
	}
}

// onChange follows writes made by other instances.
func (s *Store) onChange(c kv.Change) {
	if !isWatchedKey(c.Key) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	s.mu.Lock()
	changed, _ := s.refreshLocked(ctx, c.Key)
	s.mu.Unlock()

	if !changed {
		return
	}
	s.metrics.remoteRefreshed(c.Key)
	s.log.Debug("key reloaded after change by another instance", zap.String("key", c.Key))
	s.notify(c.Key)
}

// Refresh reloads one key from the durable store.
func (s *Store) Refresh(ctx context.Context, key string) error {
	if !isWatchedKey(key) {
		return ErrUnknownKey
	}

	s.mu.Lock()
	changed, err := s.refreshLocked(ctx, key)
	s.mu.Unlock()

	if changed {
		s.notify(key)
	}
	return err
}

// RefreshAll reloads every key from the durable store.
func (s *Store) RefreshAll(ctx context.Context) {
	keys := append(append([]string(nil), collectionKeys...), KeyAdminSession)

	s.mu.Lock()
	var changed []string
	for _, key := range keys {
		if ok, _ := s.refreshLocked(ctx, key); ok {
			changed = append(changed, key)
		}
	}
	s.mu.Unlock()

	s.log.Info("catalog refreshed", zap.Strings("changed", changed))
	s.notify(changed...)
}

// refreshLocked reloads key. Unlike the initial load, a missing, empty or
// undecodable value keeps the current in-memory value, and a value equal to
// the last one written or loaded here is skipped.
func (s *Store) refreshLocked(ctx context.Context, key string) (bool, error) {
	if key == KeyAdminSession {
		auth := s.readSessionLocked(ctx)
		changed := auth != s.authenticated
		s.authenticated = auth
		return changed, nil
	}

	raw, ok := s.readRaw(ctx, key)
	if ok && raw == s.written[key] {
		return false, nil
	}

	var applied bool
	switch key {
	case KeyProducts:
		s.products, applied = reloadKey(s, key, raw, ok, DecodeProducts, s.products)
		s.metrics.setProducts(len(s.products))
	case KeyHeroBanners:
		s.banners, applied = reloadKey(s, key, raw, ok, decodeJSON[[]HeroBanner], s.banners)
	case KeyShopCategories:
		s.categories, applied = reloadKey(s, key, raw, ok, decodeJSON[[]ShopCategory], s.categories)
	case KeyTrending:
		s.trending, applied = reloadKey(s, key, raw, ok, decodeJSON[[]int64], s.trending)
	case KeyBestSellers:
		s.bestSellers, applied = reloadKey(s, key, raw, ok, decodeJSON[[]int64], s.bestSellers)
	default:
		return false, ErrUnknownKey
	}

	if applied {
		s.written[key] = raw
	}
	return applied, nil
}

func reloadKey[T any](s *Store, key, raw string, ok bool, decode func(string) (T, error), current T) (T, bool) {
	if !ok {
		return current, false
	}
	v, err := decodeValue(raw, decode)
	if err != nil {
		s.log.Warn("decode stored value failed, keeping current", zap.String("key", key), zap.Error(err))
		s.metrics.decodeFailed(key)
		return current, false
	}
	return v, true
}

func isWatchedKey(key string) bool {
	if key == KeyAdminSession {
		return true
	}
	for _, k := range collectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StudioMemories/internal/kv"
)

// Keys of the durable store.
const (
	KeyProducts       = "products"
	KeyHeroBanners    = "heroBanners"
	KeyShopCategories = "shopCategories"
	KeyTrending       = "trendingProductIds"
	KeyBestSellers    = "bestSellerProductIds"
	KeyAdminSession   = "isAdminLoggedIn"

	sessionMarker = "true"
	emptySequence = "[]"
)

var collectionKeys = []string{KeyProducts, KeyHeroBanners, KeyShopCategories, KeyTrending, KeyBestSellers}

var (
	ErrUnknownKey = errors.New("unknown catalog key")
	errNullValue  = errors.New("stored value is null")
)

type Options struct {
	Log     *zap.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// Store owns the catalog collections and the admin session flag. The
// durable store is the system of record; the collections held here are a
// cache of it, written through on every mutation and reloaded when another
// instance changes a key.
type Store struct {
	kv      kv.Store
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	mu            sync.RWMutex
	products      []Product
	banners       []HeroBanner
	categories    []ShopCategory
	trending      []int64
	bestSellers   []int64
	authenticated bool
	lastProductID int64
	// last encoding written or loaded per key, used to drop echoes of our own writes
	written map[string]string

	subMu   sync.Mutex
	subs    map[int]subscription
	nextSub int

	unwatch func()
}

// New loads every collection from backend, falling back to the seed content
// for keys that are missing, empty or unreadable, writes the result back and
// starts following changes made by other instances.
func New(ctx context.Context, backend kv.Store, opts Options) *Store {
	s := &Store{
		kv:      backend,
		log:     opts.Log,
		metrics: opts.Metrics,
		now:     opts.Now,
		written: make(map[string]string),
		subs:    make(map[int]subscription),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Changes arriving during the load wait on mu and re-read afterwards.
	s.unwatch = backend.Subscribe(s.onChange)

	s.products = loadKey(ctx, s, KeyProducts, DecodeProducts, SeedProducts)
	s.banners = loadKey(ctx, s, KeyHeroBanners, decodeJSON[[]HeroBanner], SeedHeroBanners)
	s.categories = loadKey(ctx, s, KeyShopCategories, decodeJSON[[]ShopCategory], SeedShopCategories)
	s.trending = loadKey(ctx, s, KeyTrending, decodeJSON[[]int64], SeedTrendingProductIDs)
	s.bestSellers = loadKey(ctx, s, KeyBestSellers, decodeJSON[[]int64], SeedBestSellerProductIDs)
	s.authenticated = s.readSessionLocked(ctx)

	for _, key := range collectionKeys {
		s.persistLocked(ctx, key)
	}
	s.metrics.setProducts(len(s.products))

	return s
}

// Close stops following other instances. The backend stays open.
func (s *Store) Close() {
	if s.unwatch != nil {
		s.unwatch()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// readRaw returns the stored encoding, or ok=false when the key should
// fall back: missing, unreadable or holding the empty sequence.
func (s *Store) readRaw(ctx context.Context, key string) (string, bool) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("read stored value failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	if !ok || raw == "" || raw == emptySequence {
		return "", false
	}
	return raw, true
}

func decodeValue[T any](raw string, decode func(string) (T, error)) (T, error) {
	if strings.TrimSpace(raw) == "null" {
		var zero T
		return zero, errNullValue
	}
	return decode(raw)
}

func loadKey[T any](ctx context.Context, s *Store, key string, decode func(string) (T, error), fallback func() T) T {
	raw, ok := s.readRaw(ctx, key)
	if !ok {
		return fallback()
	}
	v, err := decodeValue(raw, decode)
	if err != nil {
		s.log.Warn("decode stored value failed, using default", zap.String("key", key), zap.Error(err))
		s.metrics.decodeFailed(key)
		return fallback()
	}
	s.written[key] = raw
	return v
}

func (s *Store) valueLocked(key string) any {
	switch key {
	case KeyProducts:
		return s.products
	case KeyHeroBanners:
		return s.banners
	case KeyShopCategories:
		return s.categories
	case KeyTrending:
		return s.trending
	case KeyBestSellers:
		return s.bestSellers
	}
	return nil
}

// persistLocked writes the in-memory value of key through to the durable
// store. Failures are logged and counted; the in-memory value stays
// authoritative for the rest of the session.
func (s *Store) persistLocked(ctx context.Context, key string) {
	b, err := json.Marshal(s.valueLocked(key))
	if err != nil {
		s.log.Warn("encode value failed", zap.String("key", key), zap.Error(err))
		s.metrics.persistFailed(key)
		return
	}

	raw := string(b)
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.log.Warn("persist failed", zap.String("key", key), zap.Int("bytes", len(raw)), zap.Error(err))
		s.metrics.persistFailed(key)
		return
	}
	s.written[key] = raw
}

func (s *Store) readSessionLocked(ctx context.Context) bool {
	v, ok, err := s.kv.Get(ctx, KeyAdminSession)
	if err != nil {
		s.log.Warn("read session marker failed", zap.Error(err))
		return s.authenticated
	}
	return ok && v == sessionMarker
}

// Reads. Every slice returned is a copy.

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

func (s *Store) Product(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.productIndexLocked(id); i >= 0 {
		return s.products[i].clone(), true
	}
	return Product{}, false
}

func (s *Store) HeroBanners() []HeroBanner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]HeroBanner(nil), s.banners...)
}

func (s *Store) ShopCategories() []ShopCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ShopCategory(nil), s.categories...)
}

func (s *Store) TrendingProductIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIDs(s.trending)
}

func (s *Store) BestSellerProductIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIDs(s.bestSellers)
}

// TrendingProducts resolves the trending set against the product list,
// in product order.
func (s *Store) TrendingProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membersLocked(s.trending)
}

func (s *Store) BestSellerProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membersLocked(s.bestSellers)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) membersLocked(ids []int64) []Product {
	out := make([]Product, 0, len(ids))
	for _, p := range s.products {
		if containsID(ids, p.ID) {
			out = append(out, p.clone())
		}
	}
	return out
}

func (s *Store) productIndexLocked(id int64) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nextProductIDLocked hands out the current time in milliseconds, bumped
// past the previous id and past any id already in the catalog.
func (s *Store) nextProductIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastProductID {
		id = s.lastProductID + 1
	}
	for s.productIndexLocked(id) >= 0 {
		id++
	}
	s.lastProductID = id
	return id
}

// Mutations.

func (s *Store) AddProduct(ctx context.Context, in ProductInput) Product {
	s.mu.Lock()
	p := newProduct(s.nextProductIDLocked(), in)
	s.products = append(s.products, p)
	s.persistLocked(ctx, KeyProducts)
	s.metrics.setProducts(len(s.products))
	s.mu.Unlock()

	s.log.Info("product added", zap.Int64("id", p.ID))
	s.notify(KeyProducts)
	return p.clone()
}

// UpdateProduct merges u over the product with id. Images and Image are
// always derived again from the merged MainImage and CarouselImages.
// A missing id is a no-op.
func (s *Store) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (Product, bool) {
	s.mu.Lock()
	i := s.productIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return Product{}, false
	}
	p := applyUpdate(s.products[i], u)
	s.products[i] = p
	s.persistLocked(ctx, KeyProducts)
	s.mu.Unlock()

	s.log.Info("product updated", zap.Int64("id", id))
	s.notify(KeyProducts)
	return p.clone(), true
}

// DeleteProduct removes id from the products and from both featured sets.
func (s *Store) DeleteProduct(ctx context.Context, id int64) bool {
	s.mu.Lock()
	var changed []string

	if i := s.productIndexLocked(id); i >= 0 {
		next := make([]Product, 0, len(s.products)-1)
		next = append(next, s.products[:i]...)
		s.products = append(next, s.products[i+1:]...)
		changed = append(changed, KeyProducts)
	}
	if next, ok := removeID(s.trending, id); ok {
		s.trending = next
		changed = append(changed, KeyTrending)
	}
	if next, ok := removeID(s.bestSellers, id); ok {
		s.bestSellers = next
		changed = append(changed, KeyBestSellers)
	}

	for _, key := range changed {
		s.persistLocked(ctx, key)
	}
	s.metrics.setProducts(len(s.products))
	s.mu.Unlock()

	if len(changed) == 0 {
		return false
	}
	s.log.Info("product deleted", zap.Int64("id", id))
	s.notify(changed...)
	return true
}

// ToggleTrending flips membership of id in the trending set and reports
// whether id is a member afterwards.
func (s *Store) ToggleTrending(ctx context.Context, id int64) bool {
	return s.toggle(ctx, KeyTrending, &s.trending, id)
}

func (s *Store) ToggleBestSeller(ctx context.Context, id int64) bool {
	return s.toggle(ctx, KeyBestSellers, &s.bestSellers, id)
}

func (s *Store) toggle(ctx context.Context, key string, set *[]int64, id int64) bool {
	s.mu.Lock()
	next, removed := removeID(*set, id)
	if !removed {
		next = append(cloneIDs(*set), id)
	}
	*set = next
	s.persistLocked(ctx, key)
	s.mu.Unlock()

	s.notify(key)
	return !removed
}

// Login marks the admin session. Credentials are checked by the caller.
func (s *Store) Login(ctx context.Context) {
	s.mu.Lock()
	if err := s.kv.Set(ctx, KeyAdminSession, sessionMarker); err != nil {
		s.log.Warn("persist failed", zap.String("key", KeyAdminSession), zap.Error(err))
		s.metrics.persistFailed(KeyAdminSession)
	}
	changed := !s.authenticated
	s.authenticated = true
	s.mu.Unlock()

	if changed {
		s.notify(KeyAdminSession)
	}
}

// Logout removes the session marker from the durable store entirely.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	if err := s.kv.Delete(ctx, KeyAdminSession); err != nil {
		s.log.Warn("persist failed", zap.String("key", KeyAdminSession), zap.Error(err))
		s.metrics.persistFailed(KeyAdminSession)
	}
	changed := s.authenticated
	s.authenticated = false
	s.mu.Unlock()

	if changed {
		s.notify(KeyAdminSession)
	}
}

// AddHeroBanner puts a new banner first.
func (s *Store) AddHeroBanner(ctx context.Context, in HeroBannerInput) HeroBanner {
	b := HeroBanner{
		ID:          newEntryID("b_"),
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	s.mu.Lock()
	s.banners = append([]HeroBanner{b}, s.banners...)
	s.persistLocked(ctx, KeyHeroBanners)
	s.mu.Unlock()

	s.notify(KeyHeroBanners)
	return b
}

func (s *Store) DeleteHeroBanner(ctx context.Context, id EntryID) bool {
	s.mu.Lock()
	next := make([]HeroBanner, 0, len(s.banners))
	for _, b := range s.banners {
		if b.ID != id {
			next = append(next, b)
		}
	}
	if len(next) == len(s.banners) {
		s.mu.Unlock()
		return false
	}
	s.banners = next
	s.persistLocked(ctx, KeyHeroBanners)
	s.mu.Unlock()

	s.notify(KeyHeroBanners)
	return true
}

// AddShopCategory puts a new category first. An empty link is derived
// from the name.
func (s *Store) AddShopCategory(ctx context.Context, in ShopCategoryInput) ShopCategory {
	link := strings.TrimSpace(in.Link)
	if link == "" {
		link = CategoryLink(in.Name)
	}
	c := ShopCategory{
		ID:        newEntryID("c_"),
		Name:      in.Name,
		Link:      link,
		Image:     in.Image,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	s.mu.Lock()
	s.categories = append([]ShopCategory{c}, s.categories...)
	s.persistLocked(ctx, KeyShopCategories)
	s.mu.Unlock()

	s.notify(KeyShopCategories)
	return c
}

func (s *Store) DeleteShopCategory(ctx context.Context, id EntryID) bool {
	s.mu.Lock()
	next := make([]ShopCategory, 0, len(s.categories))
	for _, c := range s.categories {
		if c.ID != id {
			next = append(next, c)
		}
	}
	if len(next) == len(s.categories) {
		s.mu.Unlock()
		return false
	}
	s.categories = next
	s.persistLocked(ctx, KeyShopCategories)
	s.mu.Unlock()

	s.notify(KeyShopCategories)
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) ([]int64, bool) {
	if !containsID(ids, id) {
		return ids, false
	}
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, true
}

func cloneIDs(in []int64) []int64 {
	out := make([]int64, len(in))
	copy(out, in)
	return out
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"geo-elevate/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	countriesCacheKey = "geo-elevate-countries-data"
	// DefaultCatalogTTL is how long a fetched catalog is trusted.
	DefaultCatalogTTL = 7 * 24 * time.Hour
	// OfflineAdvisory is shown when the bundled catalog replaces the remote one.
	OfflineAdvisory = "Failed to load latest data. Using offline mode."
)

// KVStore is the persisted string store that survives restarts
// (auth token, user, guest flag, scores, cached catalog).
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// CountrySource fetches the latest country list.
type CountrySource interface {
	FetchCountries(ctx context.Context) ([]domain.Country, error)
}

// Catalog is the in-memory country list used to build questions.
type Catalog struct {
	Countries []domain.Country
	FromCache bool
	Offline   bool
	Advisory  string
}

type cachedCatalog struct {
	Timestamp int64            `json:"timestamp"`
	Data      []domain.Country `json:"data"`
}

// CatalogService loads countries from the local cache, the remote source or
// the bundled fallback, in that order.
type CatalogService struct {
	source   CountrySource
	store    KVStore
	fallback []domain.Country
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
}

func NewCatalogService(source CountrySource, store KVStore, fallback []domain.Country, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{
		source:   source,
		store:    store,
		fallback: fallback,
		ttl:      ttl,
		clock:    time.Now,
	}
}

// NewCatalogServiceWithClock is test-only for deterministic cache expiry.
func NewCatalogServiceWithClock(source CountrySource, store KVStore, fallback []domain.Country, ttl time.Duration, now func() time.Time) *CatalogService {
	s := NewCatalogService(source, store, fallback, ttl)
	s.clock = now
	return s
}

// Load returns the catalog. A failed fetch is not an error: the bundled list
// is returned with Offline set.
func (s *CatalogService) Load(ctx context.Context) (Catalog, error) {
	if catalog, ok := s.cached(ctx); ok {
		return catalog, nil
	}

	result, err, _ := s.sf.Do(countriesCacheKey, func() (interface{}, error) {
		if catalog, ok := s.cached(ctx); ok {
			return catalog, nil
		}
		return s.fetch(ctx), nil
	})
	if err != nil {
		return Catalog{}, err
	}
	return result.(Catalog), nil
}

func (s *CatalogService) cached(ctx context.Context) (Catalog, bool) {
	raw, err := s.store.Get(ctx, countriesCacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			log.Printf("read catalog cache: %v", err)
		}
		return Catalog{}, false
	}
	var entry cachedCatalog
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		log.Printf("discarding unreadable catalog cache: %v", err)
		return Catalog{}, false
	}
	age := s.clock().Sub(time.UnixMilli(entry.Timestamp))
	if age >= s.ttl || len(entry.Data) == 0 {
		return Catalog{}, false
	}
	return Catalog{Countries: entry.Data, FromCache: true}, true
}

func (s *CatalogService) fetch(ctx context.Context) Catalog {
	countries, err := s.source.FetchCountries(ctx)
	if err == nil && len(countries) == 0 {
		err = domain.ErrEmptyCatalog
	}
	if err != nil {
		log.Printf("falling back to bundled countries: %v", err)
		return Catalog{
			Countries: append([]domain.Country(nil), s.fallback...),
			Offline:   true,
			Advisory:  OfflineAdvisory,
		}
	}

	data, err := json.Marshal(cachedCatalog{Timestamp: s.clock().UnixMilli(), Data: countries})
	if err == nil {
		err = s.store.Set(ctx, countriesCacheKey, string(data))
	}
	if err != nil {
		log.Printf("write catalog cache: %v", err)
	}
	return Catalog{Countries: countries}
}

// Invalidate drops the cached catalog so the next Load fetches again.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.store.Delete(ctx, countriesCacheKey)
}

package gstinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"3tcapital/gstlens/internal/core/gstin"
	"3tcapital/gstlens/internal/core/invoice"
	"3tcapital/gstlens/internal/infrastructure/cache"
)

// ErrInvalidGSTIN is returned for identifiers that are not GSTIN-shaped.
var ErrInvalidGSTIN = errors.New("gstin must be 15 characters")

const defaultCacheSize = 10000

// Service looks taxpayers up in the GST registry. Found entries are cached
// for ttl; misses and failures always go back to the registry.
type Service struct {
	registry gstin.Registry
	cache    *cache.TTLCache[string, gstin.Info]
	ttl      time.Duration
	log      *slog.Logger
}

// NewService creates a lookup service. ttl <= 0 disables caching.
func NewService(registry gstin.Registry, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		registry: registry,
		cache:    cache.NewTTLCache[string, gstin.Info](defaultCacheSize),
		ttl:      ttl,
		log:      log,
	}
}

// Lookup returns the registration details of id, gstin.ErrNotFound, or ErrInvalidGSTIN.
func (s *Service) Lookup(ctx context.Context, id string) (gstin.Info, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !invoice.IsGSTINShaped(id) {
		return gstin.Info{}, ErrInvalidGSTIN
	}

	if s.ttl > 0 {
		if info, ok := s.cache.Get(id); ok {
			s.log.Debug("gstinfo.cache_hit", "gstin", id)
			return info, nil
		}
	}

	info, err := s.registry.LookupGST(ctx, id)
	if err != nil {
		if errors.Is(err, gstin.ErrNotFound) {
			return gstin.Info{}, err
		}
		return gstin.Info{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	if info == nil {
		return gstin.Info{}, gstin.ErrNotFound
	}

	if s.ttl > 0 {
		s.cache.Set(id, *info, s.ttl)
	}
	return *info, nil
}

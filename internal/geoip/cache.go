package geoip

import (
	"context"
	"fmt"
	"log"
	"net/netip"
	"strings"

	"github.com/aquataze/tool-gateway/internal/api"
)

// Cache is the cache-aside resolver. Hits never write; misses write once.
// Failed upstream lookups are not cached, so the next call retries.
type Cache struct {
	repo     Repository
	upstream Upstream
}

func NewCache(repo Repository, upstream Upstream) *Cache {
	return &Cache{repo: repo, upstream: upstream}
}

// Resolve returns the geolocation record for ip.
func (c *Cache) Resolve(ctx context.Context, ip string) (*GeoRecord, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, fmt.Errorf("IP address is required: %w", api.ErrInvalidArgument)
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, fmt.Errorf("invalid IP address %q: %w", ip, api.ErrInvalidArgument)
	}
	// Spellings of one address share a cache row.
	ip = addr.String()

	cached, err := c.repo.Find(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("lookup cache for %s: %w", ip, err)
	}
	if cached != nil {
		log.Printf("Found existing IP info in cache for %s", ip)
		return cached.public(), nil
	}

	fresh, err := c.upstream.Fetch(ctx, ip)
	if err != nil {
		return nil, err
	}
	if fresh.IP == "" {
		fresh.IP = ip
	}
	fresh.describe()

	if err := c.repo.Upsert(ctx, ip, fresh); err != nil {
		return nil, fmt.Errorf("store lookup for %s: %w", ip, err)
	}
	log.Printf("🌍 Cached geolocation for %s (%s, %s)", ip, fresh.City, fresh.CountryName)
	return fresh.public(), nil
}

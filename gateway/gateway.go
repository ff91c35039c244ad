package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ClanPulse/cache"
	"ClanPulse/coc"
)

// Upstream is the slice of the CoC client the gateway needs. The gateway is
// the only component constructed with one, so every upstream request funnels
// through its cache policy.
type Upstream interface {
	FetchClan(ctx context.Context, tag string) ([]byte, error)
	FetchPlayer(ctx context.Context, tag string) ([]byte, error)
	FetchWar(ctx context.Context, tag string) ([]byte, error)
	FetchClanMembers(ctx context.Context, tag string) ([]byte, error)
	FetchRaidSeasons(ctx context.Context, tag string) ([]byte, error)
}

// Gateway answers clan, player and war reads from the cache store, calling
// upstream only on a miss. Concurrent misses for the same key collapse to one
// upstream call. An upstream failure is returned as-is; expired cache entries
// are never served in its place.
type Gateway struct {
	upstream Upstream
	store    cache.Store
	group    singleflight.Group
	ttl      time.Duration
	warTTL   time.Duration
	log      *zap.Logger
}

// New builds a gateway. ttl covers the relatively static clan and player
// summaries; warTTL is the short expiry for the volatile current war state.
func New(upstream Upstream, store cache.Store, ttl, warTTL time.Duration, log *zap.Logger) *Gateway {
	return &Gateway{
		upstream: upstream,
		store:    store,
		ttl:      ttl,
		warTTL:   warTTL,
		log:      log,
	}
}

// Clan returns the raw clan summary payload.
func (g *Gateway) Clan(ctx context.Context, tag string) ([]byte, error) {
	normalized, err := coc.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	return g.fetch(ctx, "clan:"+normalized, g.ttl, func(ctx context.Context) ([]byte, error) {
		return g.upstream.FetchClan(ctx, normalized)
	})
}

// Player returns the raw player summary payload.
func (g *Gateway) Player(ctx context.Context, tag string) ([]byte, error) {
	normalized, err := coc.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	return g.fetch(ctx, "player:"+normalized, g.ttl, func(ctx context.Context) ([]byte, error) {
		return g.upstream.FetchPlayer(ctx, normalized)
	})
}

// Members returns the raw clan member list payload.
func (g *Gateway) Members(ctx context.Context, tag string) ([]byte, error) {
	normalized, err := coc.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	return g.fetch(ctx, "members:"+normalized, g.ttl, func(ctx context.Context) ([]byte, error) {
		return g.upstream.FetchClanMembers(ctx, normalized)
	})
}

// Raids returns the raw capital raid seasons payload for a clan.
func (g *Gateway) Raids(ctx context.Context, tag string) ([]byte, error) {
	normalized, err := coc.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	return g.fetch(ctx, "raids:"+normalized, g.ttl, func(ctx context.Context) ([]byte, error) {
		return g.upstream.FetchRaidSeasons(ctx, normalized)
	})
}

// War returns the raw current war payload for a clan.
func (g *Gateway) War(ctx context.Context, tag string) ([]byte, error) {
	normalized, err := coc.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	return g.fetch(ctx, "war:"+normalized, g.warTTL, func(ctx context.Context) ([]byte, error) {
		return g.upstream.FetchWar(ctx, normalized)
	})
}

// WarState returns the parsed war snapshot the reminder scheduler works on.
func (g *Gateway) WarState(ctx context.Context, tag string) (coc.War, error) {
	payload, err := g.War(ctx, tag)
	if err != nil {
		return coc.War{}, err
	}
	return coc.ParseWar(payload)
}

func (g *Gateway) fetch(ctx context.Context, key string, ttl time.Duration, call func(context.Context) ([]byte, error)) ([]byte, error) {
	if payload, ok := g.cached(ctx, key); ok {
		return payload, nil
	}

	result, err, _ := g.group.Do(key, func() (any, error) {
		// Re-check under the flight: a racing caller may have filled the
		// entry between our miss and winning the flight.
		if payload, ok := g.cached(ctx, key); ok {
			return payload, nil
		}
		payload, err := call(ctx)
		if err != nil {
			return nil, err
		}
		if err := g.store.Set(ctx, key, payload, ttl); err != nil {
			g.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (g *Gateway) cached(ctx context.Context, key string) ([]byte, bool) {
	payload, ok, err := g.store.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to an upstream call, it does not fail reads.
		g.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return payload, ok
}

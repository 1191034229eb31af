package datasource

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/metrics"
	"github.com/yourusername/keiba-sim/internal/models"
)

const racesKey = "\x00races"

// CachedProvider keeps fetched runners for a TTL and falls back to the last
// good copy when the wrapped provider fails
type CachedProvider struct {
	inner  OddsProvider
	fresh  *gocache.Cache
	stale  *gocache.Cache
	logger *logger.ProviderLogger
}

// NewCachedProvider wraps a provider with a TTL cache
func NewCachedProvider(inner OddsProvider, ttl time.Duration, log *logger.ProviderLogger) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		inner:  inner,
		fresh:  gocache.New(ttl, 2*ttl),
		stale:  gocache.New(gocache.NoExpiration, 0),
		logger: log,
	}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// FetchHorses serves fresh cache entries, then the wrapped provider, then stale entries
func (p *CachedProvider) FetchHorses(ctx context.Context, raceID string) ([]models.Horse, error) {
	if v, ok := p.fresh.Get(raceID); ok {
		metrics.RecordCacheLookup("hit")
		p.logger.LogCacheServe(raceID, false)
		return cloneHorses(v.([]models.Horse)), nil
	}
	metrics.RecordCacheLookup("miss")

	horses, err := p.inner.FetchHorses(ctx, raceID)
	if err != nil {
		if v, ok := p.stale.Get(raceID); ok {
			metrics.RecordCacheLookup("stale")
			p.logger.LogCacheServe(raceID, true)
			return cloneHorses(v.([]models.Horse)), nil
		}
		return nil, err
	}

	p.fresh.SetDefault(raceID, cloneHorses(horses))
	p.stale.Set(raceID, cloneHorses(horses), gocache.NoExpiration)
	return horses, nil
}

// FetchRaces caches the race list when the wrapped provider is a RaceSource
func (p *CachedProvider) FetchRaces(ctx context.Context) ([]models.Race, error) {
	source, ok := p.inner.(RaceSource)
	if !ok {
		return nil, NewProviderError(p.Name(), ErrCodeNotFound, "provider cannot list races", nil)
	}

	if v, ok := p.fresh.Get(racesKey); ok {
		metrics.RecordCacheLookup("hit")
		return cloneRaces(v.([]models.Race)), nil
	}
	metrics.RecordCacheLookup("miss")

	races, err := source.FetchRaces(ctx)
	if err != nil {
		if v, ok := p.stale.Get(racesKey); ok {
			metrics.RecordCacheLookup("stale")
			p.logger.LogCacheServe("", true)
			return cloneRaces(v.([]models.Race)), nil
		}
		return nil, err
	}

	p.fresh.SetDefault(racesKey, cloneRaces(races))
	p.stale.Set(racesKey, cloneRaces(races), gocache.NoExpiration)
	for _, race := range races {
		p.fresh.SetDefault(race.ID, cloneHorses(race.Horses))
		p.stale.Set(race.ID, cloneHorses(race.Horses), gocache.NoExpiration)
	}
	return races, nil
}

// Invalidate drops fresh entries so the next call goes upstream
func (p *CachedProvider) Invalidate() {
	p.fresh.Flush()
}

func cloneHorses(in []models.Horse) []models.Horse {
	return append([]models.Horse(nil), in...)
}

func cloneRaces(in []models.Race) []models.Race {
	out := make([]models.Race, len(in))
	for i, r := range in {
		out[i] = r
		out[i].Horses = cloneHorses(r.Horses)
	}
	return out
}

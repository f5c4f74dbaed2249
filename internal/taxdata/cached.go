package taxdata

import (
	"context"

	"finplan/internal/cache"
	"finplan/internal/core"
)

// CachedProvider answers from caches before asking next. Misses and errors
// fall through; only successful lookups are stored.
type CachedProvider struct {
	next    Provider
	federal cache.Cache[FederalTaxData]
	state   cache.Cache[StateTaxData]
}

func NewCachedProvider(next Provider, federal cache.Cache[FederalTaxData], state cache.Cache[StateTaxData]) *CachedProvider {
	return &CachedProvider{next: next, federal: federal, state: state}
}

func (p *CachedProvider) Federal(ctx context.Context, year int, status core.FilingStatus) (FederalTaxData, error) {
	key := FederalKey(year, status)
	if d, ok := p.federal.Get(key); ok {
		return d.Clone(), nil
	}
	d, err := p.next.Federal(ctx, year, status)
	if err != nil {
		return FederalTaxData{}, err
	}
	p.federal.Set(key, d.Clone())
	return d, nil
}

func (p *CachedProvider) State(ctx context.Context, state string, year int, status core.FilingStatus) (StateTaxData, error) {
	key := StateKey(state, year, status)
	if d, ok := p.state.Get(key); ok {
		return d.Clone(), nil
	}
	d, err := p.next.State(ctx, state, year, status)
	if err != nil {
		return StateTaxData{}, err
	}
	p.state.Set(key, d.Clone())
	return d, nil
}

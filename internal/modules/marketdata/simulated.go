package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// simulatedDays is the length of a generated price history, roughly one
// trading year.
const simulatedDays = 252

// simulatedProfile holds the annualized drift and volatility used to
// synthesize a series for a known ticker.
type simulatedProfile struct {
	drift float64
	vol   float64
}

// Drift/vol profiles for the default B3 universe; unknown symbols fall back
// to a generic medium-risk profile.
var simulatedProfiles = map[string]simulatedProfile{
	"PETR4": {drift: 0.152, vol: 0.25},
	"VALE3": {drift: 0.185, vol: 0.30},
	"ITUB4": {drift: 0.123, vol: 0.20},
	"BBDC4": {drift: 0.118, vol: 0.19},
	"WEGE3": {drift: 0.140, vol: 0.22},
	"MGLU3": {drift: 0.085, vol: 0.22},
}

var defaultProfile = simulatedProfile{drift: 0.10, vol: 0.24}

// SimulatedProvider generates deterministic synthetic price histories.
// It never fails, which makes it the terminal fallback when every live
// provider is unreachable, and the fixture source for offline development.
// Series are seeded from the symbol, so repeated runs see identical data.
type SimulatedProvider struct {
	seed int64
}

// NewSimulatedProvider creates a simulated provider.
func NewSimulatedProvider(seed int64) *SimulatedProvider {
	return &SimulatedProvider{seed: seed}
}

// Name identifies the provider.
func (p *SimulatedProvider) Name() string { return "simulated" }

// Priority places the provider last in the fallback order.
func (p *SimulatedProvider) Priority() int { return 10 }

// FetchDailyCloses generates a geometric random walk with the symbol's
// drift/volatility profile. The period parameter is ignored.
func (p *SimulatedProvider) FetchDailyCloses(ctx context.Context, symbol, period string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, ok := simulatedProfiles[symbol]
	if !ok {
		profile = defaultProfile
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))

	dailyDrift := profile.drift / simulatedDays
	dailyVol := profile.vol / math.Sqrt(simulatedDays)

	closes := make([]float64, simulatedDays)
	price := 10 + rng.Float64()*90
	for i := range closes {
		price *= math.Exp(dailyDrift - 0.5*dailyVol*dailyVol + dailyVol*rng.NormFloat64())
		closes[i] = price
	}
	return closes, nil
}

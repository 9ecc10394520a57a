package flux

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

// fakeAccountGateway serves a scripted sequence of fetch results, one per
// Update call.
type fakeAccountGateway struct {
	results [][]domain.Account
	errs    []error
	cycle   int
}

func (g *fakeAccountGateway) FetchAccounts(_ context.Context) ([]domain.Account, error) {
	i := g.cycle
	g.cycle++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	return g.results[i], nil
}

type accountRecorder struct {
	notified []domain.Account
}

func (r *accountRecorder) NotifyAccount(a domain.Account) {
	r.notified = append(r.notified, a)
}

func account(id string, currency string, available int64) domain.Account {
	return domain.Account{
		ID: id,
		Balances: map[string]domain.Balance{
			currency: {Currency: currency, Available: decimal.NewFromInt(available)},
		},
	}
}

func TestAccountFlux_NotifiesOncePerDistinctChange(t *testing.T) {
	btc1 := account("trading", "BTC", 1)
	btc2 := account("trading", "BTC", 2)
	savings := account("savings", "USDT", 2000)

	gw := &fakeAccountGateway{results: [][]domain.Account{
		{btc1},
		{btc1},          // unchanged, no notification
		{btc2, savings}, // balance changed plus a new account
		{btc2, savings}, // unchanged again
	}}
	rec := &accountRecorder{}
	f := NewAccountFlux(gw, rec, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		f.Update(ctx)
	}

	require.Len(t, rec.notified, 3)
	assert.Equal(t, "trading", rec.notified[0].ID)
	assert.True(t, rec.notified[1].Balance("USDT").Available.Equal(decimal.NewFromInt(2000)))
	assert.True(t, rec.notified[2].Balance("BTC").Available.Equal(decimal.NewFromInt(2)))
}

func TestAccountFlux_FetchFailureSkipsCycle(t *testing.T) {
	btc := account("trading", "BTC", 1)

	gw := &fakeAccountGateway{
		results: [][]domain.Account{{btc}, nil, {btc}},
		errs:    []error{nil, errors.New("exchange unavailable"), nil},
	}
	rec := &accountRecorder{}
	f := NewAccountFlux(gw, rec, zap.NewNop())

	ctx := context.Background()
	f.Update(ctx) // first sighting
	f.Update(ctx) // fails, snapshot untouched
	f.Update(ctx) // unchanged, must not re-notify

	assert.Len(t, rec.notified, 1)
}

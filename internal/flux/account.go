package flux

import (
	"context"

	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
)

// AccountNotifier receives changed accounts.
type AccountNotifier interface {
	NotifyAccount(account domain.Account)
}

// AccountFlux polls account state and forwards changed accounts to strategies.
type AccountFlux struct {
	gateway  gateway.AccountGateway
	snapshot *Snapshot[domain.Account]
	notifier AccountNotifier
	logger   *zap.Logger
}

// NewAccountFlux creates the account flux controller.
func NewAccountFlux(gw gateway.AccountGateway, notifier AccountNotifier, logger *zap.Logger) *AccountFlux {
	return &AccountFlux{
		gateway:  gw,
		snapshot: NewSnapshot[domain.Account](),
		notifier: notifier,
		logger:   logger,
	}
}

// Name returns the controller name used by the scheduler and logs.
func (f *AccountFlux) Name() string { return "account-flux" }

// Update runs one poll cycle. A fetch failure skips the cycle and leaves the
// snapshot untouched; it never propagates.
func (f *AccountFlux) Update(ctx context.Context) {
	accounts, err := f.gateway.FetchAccounts(ctx)
	if err != nil {
		f.logger.Warn("account fetch failed, skipping cycle", zap.Error(err))
		return
	}

	changed, conflicting := Changes(f.snapshot, accounts)
	for _, account := range conflicting {
		f.logger.Error("conflicting duplicate account in fetch, update dropped",
			zap.String("account", account.UID()))
	}
	for _, account := range changed {
		f.notifier.NotifyAccount(account)
	}
}

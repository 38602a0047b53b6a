package wallet

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/solana"
	"wallet-analytics/internal/storage"
)

// TransactionSource returns a wallet's typed transaction history.
type TransactionSource interface {
	Transactions(ctx context.Context, address string) ([]domain.Transaction, error)
}

var (
	_ TransactionSource = (*History)(nil)
	_ TransactionSource = (*ArchivedHistory)(nil)
)

// ArchivedHistory appends fetched transactions to a store and serves the
// stored history when the chain cannot be read.
type ArchivedHistory struct {
	upstream TransactionSource
	store    storage.TransactionStore
	logger   logrus.FieldLogger
}

// NewArchivedHistory wraps upstream with a transaction archive.
func NewArchivedHistory(upstream TransactionSource, store storage.TransactionStore, logger logrus.FieldLogger) *ArchivedHistory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ArchivedHistory{
		upstream: upstream,
		store:    store,
		logger:   logger.WithField("component", "tx_archive"),
	}
}

// Transactions returns the upstream history merged with previously archived
// events that fell outside the upstream window, ordered by timestamp then seq.
func (a *ArchivedHistory) Transactions(ctx context.Context, address string) ([]domain.Transaction, error) {
	fresh, err := a.upstream.Transactions(ctx, address)
	if err != nil {
		if errors.Is(err, solana.ErrInvalidAddress) || ctx.Err() != nil {
			return nil, err
		}
		archived, rerr := a.store.GetByAddress(ctx, address)
		if rerr != nil || len(archived) == 0 {
			if rerr != nil {
				a.logger.WithError(rerr).WithField("address", address).Warn("archive read failed")
			}
			return nil, err
		}
		a.logger.WithFields(logrus.Fields{
			"address":      address,
			"transactions": len(archived),
		}).WithError(err).Info("serving archived transactions")
		return archived, nil
	}

	inserted, werr := a.store.Append(ctx, address, fresh)
	if werr != nil {
		a.logger.WithError(werr).WithField("address", address).Warn("archive write failed")
		return fresh, nil
	}

	all, rerr := a.store.GetByAddress(ctx, address)
	if rerr != nil {
		a.logger.WithError(rerr).WithField("address", address).Warn("archive read failed")
		return fresh, nil
	}
	a.logger.WithFields(logrus.Fields{
		"address":  address,
		"fresh":    len(fresh),
		"inserted": inserted,
		"total":    len(all),
	}).Debug("transactions archived")
	return all, nil
}


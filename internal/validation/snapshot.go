// Package validation implements the fraud rule set and the parallel
// validator that fans evaluations out across it.
package validation

import (
	"context"
	"sync"
	"time"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
)

const historyWindow = 20

// Snapshot is the immutable per-evaluation view of a card's recent history.
// It is built once, shared read-only across all rules, and never re-queries
// storage. The current transaction is element 0 of Last20.
type Snapshot struct {
	Card            *models.Card
	DeviceCardCount int

	Last20        []*models.Transaction
	Last10        []*models.Transaction
	Last24Hours   []*models.Transaction
	Last10Minutes []*models.Transaction
	Last5Minutes  []*models.Transaction

	Reference time.Time
}

// ContextLoader builds the snapshot for one evaluation. Load is idempotent:
// a second call within the same evaluation returns the first result without
// another storage read.
type ContextLoader struct {
	txRepo     *repositories.TransactionRepository
	cardRepo   *repositories.CardRepository
	deviceRepo *repositories.DeviceRepository

	once sync.Once
	snap *Snapshot
	err  error
}

// NewContextLoader creates a loader bound to one evaluation.
func NewContextLoader(txRepo *repositories.TransactionRepository, cardRepo *repositories.CardRepository, deviceRepo *repositories.DeviceRepository) *ContextLoader {
	return &ContextLoader{txRepo: txRepo, cardRepo: cardRepo, deviceRepo: deviceRepo}
}

// Load returns the snapshot for tx, reading storage at most once.
func (l *ContextLoader) Load(ctx context.Context, tx *models.Transaction) (*Snapshot, error) {
	l.once.Do(func() {
		l.snap, l.err = l.load(ctx, tx)
	})
	return l.snap, l.err
}

func (l *ContextLoader) load(ctx context.Context, tx *models.Transaction) (*Snapshot, error) {
	card, err := l.cardRepo.GetByID(ctx, tx.CardID)
	if err != nil {
		return nil, err
	}

	deviceCards, err := l.deviceRepo.CountCards(ctx, tx.DeviceID)
	if err != nil {
		return nil, err
	}

	last20, err := l.txRepo.LastNByCard(ctx, tx.CardID, historyWindow)
	if err != nil {
		return nil, err
	}

	ref := tx.CreatedAt
	if ref.IsZero() {
		ref = time.Now()
	}

	snap := &Snapshot{
		Card:            card,
		DeviceCardCount: deviceCards,
		Last20:          last20,
		Last10:          head(last20, 10),
		Last24Hours:     since(last20, ref.Add(-24*time.Hour)),
		Last10Minutes:   since(last20, ref.Add(-10*time.Minute)),
		Last5Minutes:    since(last20, ref.Add(-5*time.Minute)),
		Reference:       ref,
	}
	return snap, nil
}

func head(txs []*models.Transaction, n int) []*models.Transaction {
	if len(txs) < n {
		n = len(txs)
	}
	return txs[:n]
}

func since(txs []*models.Transaction, cutoff time.Time) []*models.Transaction {
	var out []*models.Transaction
	for _, t := range txs {
		if !t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

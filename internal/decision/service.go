// Package decision maps evaluation results to terminal decisions and applies
// their side effects.
package decision

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/alerts"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/validation"
)

// Score thresholds for the decision tiers.
const (
	reviewThreshold = 25
	blockThreshold  = 60
)

// Stores bundles the repositories for one unit of work, usually bound to an
// open transaction.
type Stores struct {
	Cards        *repositories.CardRepository
	Transactions *repositories.TransactionRepository
	Alerts       *repositories.AlertRepository
	Patterns     *repositories.PatternRepository
}

// PatternRebuilder refreshes a card's behavioral profile.
type PatternRebuilder interface {
	RebuildIn(ctx context.Context, txRepo *repositories.TransactionRepository, patternRepo *repositories.PatternRepository, cardID uuid.UUID) (*models.CardPattern, error)
}

// Outcome is the applied result of one evaluation.
type Outcome struct {
	Decision string
	Fraud    bool
	Score    int
	Alerts   []models.AlertType
	Alert    *models.FraudAlert
	Severity string
}

// Service applies the decision mapping and its side effects.
type Service struct {
	patterns PatternRebuilder
}

// NewService creates a decision service.
func NewService(patterns PatternRebuilder) *Service {
	return &Service{patterns: patterns}
}

// Decide maps a score to a decision tier and applies the overrides in order:
// successForce first, CREDIT_LIMIT_REACHED last (so the block always wins).
// The fraud flag comes from the tier mapping alone.
func Decide(result validation.Result, successForce bool) (string, bool) {
	var decision string
	switch {
	case result.Score >= blockThreshold:
		decision = models.DecisionBlocked
	case result.Score >= reviewThreshold:
		decision = models.DecisionReview
	default:
		decision = models.DecisionApproved
	}
	fraud := result.Score >= blockThreshold

	if successForce {
		decision = models.DecisionApproved
	}
	if result.HasAlert(models.AlertCreditLimitReached) {
		decision = models.DecisionBlocked
	}
	return decision, fraud
}

// Apply persists the decision and runs the side effects:
//   - the transaction's terminal decision and fraud flag (fatal on error);
//   - on approval, the credit debit and last-transaction timestamp (fatal);
//   - the behavioral-profile refresh (logged and swallowed);
//   - the fraud alert when any rule triggered (fatal on error).
func (s *Service) Apply(ctx context.Context, stores Stores, tx *models.Transaction, successForce bool, result validation.Result) (*Outcome, error) {
	decision, fraud := Decide(result, successForce)
	tx.Decision = decision
	tx.Fraud = fraud

	if err := stores.Transactions.UpdateDecision(ctx, tx.ID, decision, fraud); err != nil {
		return nil, err
	}

	if decision == models.DecisionApproved {
		if err := s.debitCard(ctx, stores, tx); err != nil {
			return nil, err
		}
	}

	if s.patterns != nil {
		if _, err := s.patterns.RebuildIn(ctx, stores.Transactions, stores.Patterns, tx.CardID); err != nil {
			log.Warn().Err(err).Str("card_id", tx.CardID.String()).Msg("Pattern refresh failed")
		}
	}

	outcome := &Outcome{
		Decision: decision,
		Fraud:    fraud,
		Score:    result.Score,
		Alerts:   result.Alerts,
		Severity: alerts.Severity(result.Score),
	}

	if len(result.Alerts) > 0 {
		alert := alerts.New(tx, result.Alerts, result.Score)
		if err := stores.Alerts.Create(ctx, alert); err != nil {
			return nil, err
		}
		outcome.Alert = alert
	}

	return outcome, nil
}

func (s *Service) debitCard(ctx context.Context, stores Stores, tx *models.Transaction) error {
	card, err := stores.Cards.GetByID(ctx, tx.CardID)
	if err != nil {
		return err
	}

	remaining := card.RemainingLimit.Sub(tx.Amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	card.RemainingLimit = remaining

	now := time.Now()
	card.LastTransactionAt = &now

	return stores.Cards.Update(ctx, card)
}

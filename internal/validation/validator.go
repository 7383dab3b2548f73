package validation

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/country"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/vpn"
)

// Result is the consolidated outcome of one evaluation: the sum of all rule
// scores and the deduplicated set of triggered alerts. Alert order carries no
// meaning.
type Result struct {
	Score  int
	Alerts []models.AlertType
}

// HasAlert reports whether the tag is present.
func (r Result) HasAlert(tag models.AlertType) bool {
	for _, a := range r.Alerts {
		if a == tag {
			return true
		}
	}
	return false
}

// Validator fans a transaction out across the full rule set in parallel and
// folds the partials back together. Rules share the snapshot read-only; a
// panicking rule contributes an empty partial.
type Validator struct {
	rules   []Rule
	workers int

	txRepo     *repositories.TransactionRepository
	cardRepo   *repositories.CardRepository
	deviceRepo *repositories.DeviceRepository
}

// NewValidator wires the full 19-rule set.
func NewValidator(
	txRepo *repositories.TransactionRepository,
	cardRepo *repositories.CardRepository,
	deviceRepo *repositories.DeviceRepository,
	resolver country.Resolver,
	blacklist *vpn.Blacklist,
) *Validator {
	return &Validator{
		rules: []Rule{
			velocityAbuseRule{},
			burstActivityRule{},
			cardTestingRule{},
			microTransactionRule{},
			declineThenApproveRule{},
			highAmountRule{},
			limitExceededRule{},
			cardLimitRule{},
			highRiskCountryRule{resolver: resolver},
			locationAnomalyRule{},
			impossibleTravelRule{},
			newDeviceRule{},
			fingerprintChangeRule{},
			torProxyRule{blacklist: blacklist},
			multipleCardsRule{},
			multipleFailedRule{},
			successAfterFailureRule{},
			timeOfDayRule{},
			anomalyModelRule{},
		},
		workers:    runtime.NumCPU(),
		txRepo:     txRepo,
		cardRepo:   cardRepo,
		deviceRepo: deviceRepo,
	}
}

// Rules exposes the wired rule set (diagnostics surface).
func (v *Validator) Rules() []Rule {
	return v.rules
}

// Validate loads the snapshot and runs every rule, blocking until all have
// returned. No short-circuit: the total score must be complete.
func (v *Validator) Validate(ctx context.Context, tx *models.Transaction) (Result, error) {
	loader := NewContextLoader(v.txRepo, v.cardRepo, v.deviceRepo)
	snap, err := loader.Load(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	return v.ValidateWithSnapshot(ctx, tx, snap), nil
}

// ValidateWithSnapshot runs the rule set against an already-built snapshot.
func (v *Validator) ValidateWithSnapshot(ctx context.Context, tx *models.Transaction, snap *Snapshot) Result {
	jobs := make(chan Rule)
	partials := make(chan Partial, len(v.rules))

	var wg sync.WaitGroup
	workers := v.workers
	if workers > len(v.rules) {
		workers = len(v.rules)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rule := range jobs {
				partials <- v.runRule(ctx, rule, tx, snap)
			}
		}()
	}

	for _, rule := range v.rules {
		jobs <- rule
	}
	close(jobs)
	wg.Wait()
	close(partials)

	var result Result
	seen := make(map[models.AlertType]bool)
	for partial := range partials {
		result.Score += partial.Score
		for _, tag := range partial.Alerts {
			if !seen[tag] {
				seen[tag] = true
				result.Alerts = append(result.Alerts, tag)
			}
		}
	}
	return result
}

// runRule isolates a single rule execution; a failure is logged and treated
// as an empty partial, never propagated.
func (v *Validator) runRule(ctx context.Context, rule Rule, tx *models.Transaction, snap *Snapshot) (partial Partial) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("rule", rule.Name()).
				Interface("panic", r).
				Msg("Rule execution failed")
			partial = Partial{}
		}
	}()
	return rule.Evaluate(ctx, tx, snap)
}

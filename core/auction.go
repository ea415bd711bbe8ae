package core

import "fmt"

// Auction executes a single collateral position auction: a population of
// sender messages is evaluated against four caller-supplied policy rules and
// a per-sender position-effect multiplier.
//
// Processing flow (the ordering is a contract, not an implementation detail):
//  1. Build the expected-liability oracle
//  2. Compute sender reports
//  3. Compute allocations
//  4. Compute payments
//  5. Derive per-sender expected utility
//
// Steps 3 and 4 may read the outputs of steps 1 and 2 through the accessor
// methods; rules must not assume the reverse order.
type Auction struct {
	auditFactory AuditOracleFactory
	reporting    ReportingRule
	allocation   AllocationRule
	payment      PaymentRule

	// positionEffects maps message id to the externality multiplier applied
	// to that sender's allocated value. Missing ids multiply by 0.
	positionEffects map[int]float64

	messages []SenderMessage

	// Derived state, populated by Run. Empty before the first Run completes;
	// re-running recomputes everything from scratch.
	oracle      LiabilityOracle
	reports     map[int]Report
	allocations map[int]int
	payments    map[int]float64
	ran         bool
}

// NewAuction creates an auction over the given population. The population
// slice is treated as immutable for the lifetime of the auction; message ids
// must be unique within it. Policy rules are shared references supplied by
// the caller and must be safe to call with this auction.
func NewAuction(
	messages []SenderMessage,
	audit AuditOracleFactory,
	reporting ReportingRule,
	allocation AllocationRule,
	payment PaymentRule,
	positionEffects map[int]float64,
) *Auction {
	return &Auction{
		auditFactory:    audit,
		reporting:       reporting,
		allocation:      allocation,
		payment:         payment,
		positionEffects: positionEffects,
		messages:        messages,
	}
}

// Messages returns the auction's population.
func (a *Auction) Messages() []SenderMessage { return a.messages }

// Oracle returns the expected-liability oracle (nil before Run).
func (a *Auction) Oracle() LiabilityOracle { return a.oracle }

// Reports returns the per-sender reported attributes (nil before Run).
func (a *Auction) Reports() map[int]Report { return a.reports }

// Allocations returns the per-sender allocated quantities (nil before Run).
func (a *Auction) Allocations() map[int]int { return a.allocations }

// Payments returns the per-sender payments (nil before Run).
func (a *Auction) Payments() map[int]float64 { return a.payments }

// PositionEffect returns the externality multiplier for a message id, 0 when
// no effect is configured for it.
func (a *Auction) PositionEffect(messageID int) float64 { return a.positionEffects[messageID] }

// Run executes the auction pipeline. An empty population completes
// successfully with empty derived state. A rule that fails, or that returns a
// mapping keyed by a message id outside the population, aborts the run with
// derived state reset.
func (a *Auction) Run() error {
	if a.auditFactory == nil || a.reporting == nil || a.allocation == nil || a.payment == nil {
		return fmt.Errorf("%w: auction requires all four policy rules", ErrInvalidParameter)
	}

	a.clearDerived()

	oracle, err := a.auditFactory.BuildOracle(a)
	if err != nil {
		return fmt.Errorf("build audit oracle: %w", err)
	}
	a.oracle = oracle

	reports, err := a.reporting.Reports(a)
	if err != nil {
		a.clearDerived()
		return fmt.Errorf("compute sender reports: %w", err)
	}
	if err := a.checkPopulationKeys("reporting rule", keysOf(reports)); err != nil {
		a.clearDerived()
		return err
	}
	a.reports = reports

	allocations, err := a.allocation.Allocate(a)
	if err != nil {
		a.clearDerived()
		return fmt.Errorf("compute allocations: %w", err)
	}
	if err := a.checkPopulationKeys("allocation rule", keysOf(allocations)); err != nil {
		a.clearDerived()
		return err
	}
	a.allocations = allocations

	payments, err := a.payment.Payments(a)
	if err != nil {
		a.clearDerived()
		return fmt.Errorf("compute payments: %w", err)
	}
	if err := a.checkPopulationKeys("payment rule", keysOf(payments)); err != nil {
		a.clearDerived()
		return err
	}
	a.payments = payments

	a.ran = true
	return nil
}

// SenderExpectedUtilities derives the per-sender expected utility from the
// current derived state, keyed by message id:
//
//	utility = allocation * positionEffect * senderValue - payment - liability
//
// Senders missing from a rule's output contribute 0 for that term. The map is
// recomputed on every call so it is never stale relative to the last Run;
// before Run has completed it is empty.
func (a *Auction) SenderExpectedUtilities() map[int]float64 {
	utilities := make(map[int]float64, len(a.messages))
	if !a.ran {
		return utilities
	}
	for _, msg := range a.messages {
		liability := 0.0
		if a.oracle != nil {
			liability = a.oracle(msg)
		}
		allocated := float64(a.allocations[msg.MessageID]) * a.positionEffects[msg.MessageID] * msg.SenderValue
		utilities[msg.MessageID] = allocated - a.payments[msg.MessageID] - liability
	}
	return utilities
}

func (a *Auction) clearDerived() {
	a.oracle = nil
	a.reports = nil
	a.allocations = nil
	a.payments = nil
	a.ran = false
}

// checkPopulationKeys enforces the strict unknown-key policy: every id a rule
// returns must belong to the current population.
func (a *Auction) checkPopulationKeys(ruleName string, ids []int) error {
	known := make(map[int]bool, len(a.messages))
	for _, msg := range a.messages {
		known[msg.MessageID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("%w: %s returned message id %d not in the population", ErrPolicyContractViolation, ruleName, id)
		}
	}
	return nil
}

func keysOf[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

package core

import "errors"

// Sentinel errors shared across the auction core and its drivers.
var (
	// ErrInvalidParameter marks out-of-range scalar configuration detected at
	// construction time (trial counts, population sizes, probability masses).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrPolicyContractViolation marks a policy rule that returned a mapping
	// keyed by a message id absent from the current population.
	ErrPolicyContractViolation = errors.New("policy contract violation")
)

// SenderMessage holds one sender's private values for a single auction
// instance. Instances are created by the population sampler, are immutable,
// and carry no identity across trials.
type SenderMessage struct {
	MessageID      int     `json:"message_id"`
	SenderValue    float64 `json:"sender_value"`
	RecipientValue float64 `json:"recipient_value"`
}

// Report holds a single sender's reported attributes, keyed by attribute name
// (e.g. "reported_value"). Which attributes appear is up to the reporting rule.
type Report map[string]float64

// LiabilityOracle computes a sender's expected collateral-audit liability.
type LiabilityOracle func(SenderMessage) float64

// AuditOracleFactory builds the liability oracle for an auction. It runs
// first in the auction pipeline, so it may not read reports, allocations, or
// payments from the auction it receives.
type AuditOracleFactory interface {
	BuildOracle(a *Auction) (LiabilityOracle, error)
}

// ReportingRule produces each sender's reported attributes. It runs after the
// audit oracle is established and may read it via Auction.Oracle.
type ReportingRule interface {
	Reports(a *Auction) (map[int]Report, error)
}

// AllocationRule produces each sender's allocated position quantity, keyed by
// message id. It runs after reporting and may read Auction.Reports and
// Auction.Oracle.
type AllocationRule interface {
	Allocate(a *Auction) (map[int]int, error)
}

// PaymentRule produces each sender's payment, keyed by message id. It runs
// last and may additionally read Auction.Allocations.
type PaymentRule interface {
	Payments(a *Auction) (map[int]float64, error)
}

// AuditOracleFactoryFunc adapts a plain function to AuditOracleFactory.
type AuditOracleFactoryFunc func(a *Auction) (LiabilityOracle, error)

func (f AuditOracleFactoryFunc) BuildOracle(a *Auction) (LiabilityOracle, error) { return f(a) }

// ReportingRuleFunc adapts a plain function to ReportingRule.
type ReportingRuleFunc func(a *Auction) (map[int]Report, error)

func (f ReportingRuleFunc) Reports(a *Auction) (map[int]Report, error) { return f(a) }

// AllocationRuleFunc adapts a plain function to AllocationRule.
type AllocationRuleFunc func(a *Auction) (map[int]int, error)

func (f AllocationRuleFunc) Allocate(a *Auction) (map[int]int, error) { return f(a) }

// PaymentRuleFunc adapts a plain function to PaymentRule.
type PaymentRuleFunc func(a *Auction) (map[int]float64, error)

func (f PaymentRuleFunc) Payments(a *Auction) (map[int]float64, error) { return f(a) }

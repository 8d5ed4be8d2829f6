package escrow

import (
	"fmt"
	"math/big"
)

// State represents the lifecycle of a commit-reveal contract. The order is
// total: a contract only ever moves forward, one step at a time, and every
// terminal branch lands on StateSettled.
type State uint8

const (
	StateOpen State = iota
	StateCommitted
	StateFunded
	StateRevealed
	StateSettled
)

// String returns the canonical state name used in events and audit records.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateCommitted:
		return "COMMITTED"
	case StateFunded:
		return "FUNDED"
	case StateRevealed:
		return "REVEALED"
	case StateSettled:
		return "SETTLED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// Valid reports whether the state value is within the supported range.
func (s State) Valid() bool { return s <= StateSettled }

// Outcome records how a settled contract resolved. It is set exactly once, at
// settlement, and is empty before then.
type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomeSuccess         Outcome = "success"
	OutcomeFailure         Outcome = "failure"
	OutcomeDisputeUserLied Outcome = "dispute_user_lied"
	OutcomeDisputeAgentLie Outcome = "dispute_agent_lied"
	OutcomeExpired         Outcome = "expired"
)

// SlashReasonCommitmentMismatch marks the reveal-time fraud fast-path: the
// sealed deliverable no longer hashes to the published commitment.
const SlashReasonCommitmentMismatch = "commitment_mismatch"

// SlashedOutcome builds the outcome recorded when an agent is slashed for a
// proven protocol violation.
func SlashedOutcome(reason string) Outcome {
	return Outcome("slashed:" + reason)
}

// Params fixes the economics of a contract at creation time. The bond is the
// agent's faithfulness stake, the deposit the user's honesty stake; both are
// multiples of the bounty. The TTL bounds how long a stalled contract may
// hold funds before anyone can expire it.
type Params struct {
	BondMultiplier    int64
	DepositMultiplier int64
	TTLSeconds        int64
}

// DefaultParams mirrors the protocol defaults: a 10x bond makes submitting
// garbage cost ten bounties, a 2x deposit makes lying about a working fix
// cost twice what honest payment would have.
func DefaultParams() Params {
	return Params{BondMultiplier: 10, DepositMultiplier: 2, TTLSeconds: 86_400}
}

// Validate rejects parameter sets under which dishonesty could be the
// cheaper strategy.
func (p Params) Validate() error {
	if p.BondMultiplier <= 0 {
		return fmt.Errorf("escrow: bond multiplier must be positive")
	}
	if p.DepositMultiplier <= 0 {
		return fmt.Errorf("escrow: deposit multiplier must be positive")
	}
	if p.BondMultiplier <= p.DepositMultiplier {
		return fmt.Errorf("escrow: bond multiplier must exceed deposit multiplier")
	}
	if p.TTLSeconds <= 0 {
		return fmt.Errorf("escrow: contract TTL must be positive")
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

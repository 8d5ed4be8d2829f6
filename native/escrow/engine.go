package escrow

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"patchdao/core/events"
	"patchdao/native/ledger"
)

// Engine manufactures contracts and carries the cross-contract wiring: the
// event emitter, the economic parameters and the time source. One engine
// serves many concurrent jobs; each contract it creates is independent.
type Engine struct {
	params  Params
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an engine with a no-op emitter. Callers can override the
// emitter via SetEmitter.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params:  params,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}, nil
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Params returns the economic parameters contracts are created under.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// CreateContract opens a new contract for the given job. A blank job id is
// replaced with a fresh UUID so every contract has a stable audit identity.
// The bond, deposit and deadline are fixed here and never change.
func (e *Engine) CreateContract(jobID string, bounty *big.Int) (*Contract, error) {
	if e == nil {
		return nil, fmt.Errorf("escrow: nil engine")
	}
	if bounty == nil || bounty.Sign() <= 0 {
		return nil, fmt.Errorf("escrow: bounty must be positive")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		jobID = uuid.NewString()
	}
	amount := cloneBigInt(bounty)
	now := e.now()
	c := &Contract{
		engine:      e,
		id:          ethcrypto.Keccak256Hash([]byte("patchdao/escrow"), []byte(jobID), amount.Bytes()),
		jobID:       jobID,
		state:       StateOpen,
		bounty:      amount,
		agentBond:   new(big.Int).Mul(amount, big.NewInt(e.params.BondMultiplier)),
		userDeposit: new(big.Int).Mul(amount, big.NewInt(e.params.DepositMultiplier)),
		heldUser:    big.NewInt(0),
		heldAgent:   big.NewInt(0),
		createdAt:   now,
		deadline:    now + e.params.TTLSeconds,
	}
	e.emit(NewCreatedEvent(c.snapshotLocked()))
	return c, nil
}

// Contract is the per-job state machine. It owns every custody decision for
// its job: funds move from a party's wallet into the held balances on the way
// in, and out of the held balances on exactly one terminal branch. Operations
// are serialized by an internal mutex; wallets carry their own locks, so two
// contracts sharing a party are safe.
type Contract struct {
	mu     sync.Mutex
	engine *Engine

	id    [32]byte
	jobID string

	state   State
	outcome Outcome

	bounty      *big.Int
	agentBond   *big.Int
	userDeposit *big.Int

	// commitment binds the agent to the sealed deliverable. The sealed copy
	// is never exposed; the revealed copy exists only from REVEALED onward.
	commitment [32]byte
	sealed     string
	revealed   string

	heldUser  *big.Int
	heldAgent *big.Int

	agent *ledger.Wallet
	user  *ledger.Wallet

	createdAt int64
	deadline  int64
	settledAt int64
}

// CommitDigest computes the one-way commitment for a deliverable. Published
// digests bind the committer without exposing the content.
func CommitDigest(deliverable string) [32]byte {
	return blake3.Sum256([]byte(deliverable))
}

// Commit locks the agent's bond and seals the deliverable behind its digest.
// The returned digest is safe to publish. On any failure the contract remains
// OPEN with no funds moved.
func (c *Contract) Commit(agent *ledger.Wallet, deliverable string) ([32]byte, error) {
	var zero [32]byte
	if agent == nil {
		return zero, errNilWallet
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return zero, fmt.Errorf("%w: commit on %s contract", ErrInvalidState, c.state)
	}
	if err := agent.Debit(c.agentBond); err != nil {
		return zero, fmt.Errorf("lock agent bond: %w", err)
	}
	c.agent = agent
	c.heldAgent = new(big.Int).Add(c.heldAgent, c.agentBond)
	c.commitment = CommitDigest(deliverable)
	c.sealed = deliverable
	c.state = StateCommitted
	c.engine.emit(NewCommittedEvent(c.snapshotLocked()))
	return c.commitment, nil
}

// Fund locks the user's bounty plus deposit. The deliverable is still sealed
// at this point: the user pays for a digest, which is what stops them from
// taking the fix and reneging.
func (c *Contract) Fund(user *ledger.Wallet) error {
	if user == nil {
		return errNilWallet
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCommitted {
		return fmt.Errorf("%w: fund on %s contract", ErrInvalidState, c.state)
	}
	total := new(big.Int).Add(c.bounty, c.userDeposit)
	if err := user.Debit(total); err != nil {
		return fmt.Errorf("lock user stake: %w", err)
	}
	c.user = user
	c.heldUser = new(big.Int).Add(c.heldUser, total)
	c.state = StateFunded
	c.engine.emit(NewFundedEvent(c.snapshotLocked()))
	return nil
}

// Reveal checks the sealed deliverable against the commitment and, on a
// match, makes it readable and returns it for sandbox execution. A mismatch
// is conclusive fraud: the agent is slashed on the spot, the contract settles
// and ErrFraudSlashed is returned instead of any deliverable.
func (c *Contract) Reveal() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateFunded {
		return "", fmt.Errorf("%w: reveal on %s contract", ErrInvalidState, c.state)
	}
	if CommitDigest(c.sealed) != c.commitment {
		c.slashLocked(SlashReasonCommitmentMismatch)
		return "", ErrFraudSlashed
	}
	c.revealed = c.sealed
	c.state = StateRevealed
	c.engine.emit(NewRevealedEvent(c.snapshotLocked()))
	return c.revealed, nil
}

// SettleSuccess pays out when both parties agree the fix worked: the agent
// receives the bounty and the bond back, the user recovers the deposit.
func (c *Contract) SettleSuccess() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRevealed {
		return fmt.Errorf("%w: settle_success on %s contract", ErrInvalidState, c.state)
	}
	agentPayout := new(big.Int).Add(c.bounty, c.heldAgent)
	if err := c.payoutLocked(agentPayout, cloneBigInt(c.userDeposit)); err != nil {
		return err
	}
	c.finishLocked(OutcomeSuccess)
	return nil
}

// SettleFailure unwinds when both parties agree the fix failed: the user is
// refunded in full and the agent's bond comes back. An honest failed attempt
// is not penalized.
func (c *Contract) SettleFailure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRevealed {
		return fmt.Errorf("%w: settle_failure on %s contract", ErrInvalidState, c.state)
	}
	if err := c.payoutLocked(cloneBigInt(c.heldAgent), cloneBigInt(c.heldUser)); err != nil {
		return err
	}
	c.finishLocked(OutcomeFailure)
	return nil
}

// Dispute adjudicates a disagreement between the user's claim and the
// sandbox's ground truth. The validator's replay verdict is authoritative:
// whichever party it contradicts forfeits their stake to the other.
func (c *Contract) Dispute(validatorSaysWorks bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRevealed {
		return fmt.Errorf("%w: dispute on %s contract", ErrInvalidState, c.state)
	}
	var outcome Outcome
	if validatorSaysWorks {
		// Fix works, so the failure claim was a lie. The user's deposit is
		// forfeited to the agent on top of the normal success payout.
		agentPayout := new(big.Int).Add(c.bounty, c.heldAgent)
		agentPayout.Add(agentPayout, c.userDeposit)
		if err := c.payoutLocked(agentPayout, big.NewInt(0)); err != nil {
			return err
		}
		outcome = OutcomeDisputeUserLied
	} else {
		// Fix fails, so the success side was the lie. The agent's bond is
		// forfeited to the user on top of the full refund.
		userPayout := new(big.Int).Add(c.heldUser, c.heldAgent)
		if err := c.payoutLocked(big.NewInt(0), userPayout); err != nil {
			return err
		}
		outcome = OutcomeDisputeAgentLie
	}
	c.finishLocked(outcome)
	return nil
}

// Expire runs the abandonment path for a contract stuck before REVEALED once
// its deadline has passed. Anyone may invoke it. A stalled contract proves
// nothing about either party, so each depositor simply gets their escrowed
// funds back and the contract settles with outcome "expired".
func (c *Contract) Expire(now int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateOpen, StateCommitted, StateFunded:
	default:
		return fmt.Errorf("%w: expire on %s contract", ErrInvalidState, c.state)
	}
	if now < c.deadline {
		return fmt.Errorf("escrow: deadline not reached")
	}
	if err := c.payoutLocked(cloneBigInt(c.heldAgent), cloneBigInt(c.heldUser)); err != nil {
		return err
	}
	c.outcome = OutcomeExpired
	c.state = StateSettled
	c.settledAt = c.engine.now()
	c.engine.emit(NewExpiredEvent(c.snapshotLocked()))
	return nil
}

// payoutLocked credits each party and zeroes the held balances. Callers hold
// the contract lock and have verified that the two payouts together equal
// heldUser + heldAgent, so value is conserved on every branch.
func (c *Contract) payoutLocked(toAgent, toUser *big.Int) error {
	if toAgent.Sign() > 0 {
		if c.agent == nil {
			return fmt.Errorf("escrow: no agent bound to contract")
		}
		if err := c.agent.Credit(toAgent); err != nil {
			return err
		}
	}
	if toUser.Sign() > 0 {
		if c.user == nil {
			return fmt.Errorf("escrow: no user bound to contract")
		}
		if err := c.user.Credit(toUser); err != nil {
			return err
		}
	}
	c.heldUser = big.NewInt(0)
	c.heldAgent = big.NewInt(0)
	return nil
}

func (c *Contract) finishLocked(outcome Outcome) {
	c.outcome = outcome
	c.state = StateSettled
	c.settledAt = c.engine.now()
	c.engine.emit(NewSettledEvent(c.snapshotLocked()))
}

// slashLocked forfeits everything the agent escrowed to the user following a
// proven commitment violation. Reachable only from FUNDED, during the reveal
// attempt that detected the fraud.
func (c *Contract) slashLocked(reason string) {
	// Credits of positive amounts cannot fail; custody is final here.
	_ = c.user.Credit(new(big.Int).Add(c.heldUser, c.heldAgent))
	c.heldUser = big.NewInt(0)
	c.heldAgent = big.NewInt(0)
	c.outcome = SlashedOutcome(reason)
	c.state = StateSettled
	c.settledAt = c.engine.now()
	c.engine.emit(NewSlashedEvent(c.snapshotLocked(), reason))
}

// ID returns the contract's deterministic identifier.
func (c *Contract) ID() [32]byte { return c.id }

// JobID returns the opaque job identifier the contract was opened for.
func (c *Contract) JobID() string { return c.jobID }

// State returns the current lifecycle state.
func (c *Contract) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the settlement outcome, or OutcomeNone before settlement.
func (c *Contract) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Bounty returns the payment owed to the agent on success.
func (c *Contract) Bounty() *big.Int {
	return cloneBigInt(c.bounty)
}

// AgentBond returns the stake the agent must escrow at commit time.
func (c *Contract) AgentBond() *big.Int {
	return cloneBigInt(c.agentBond)
}

// UserDeposit returns the stake the user must escrow on top of the bounty.
func (c *Contract) UserDeposit() *big.Int {
	return cloneBigInt(c.userDeposit)
}

// HeldUser returns the amount currently escrowed from the user.
func (c *Contract) HeldUser() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneBigInt(c.heldUser)
}

// HeldAgent returns the amount currently escrowed from the agent.
func (c *Contract) HeldAgent() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneBigInt(c.heldAgent)
}

// Commitment returns the published digest, or the zero digest before commit.
func (c *Contract) Commitment() [32]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commitment
}

// Deadline returns the unix time after which Expire becomes callable.
func (c *Contract) Deadline() int64 { return c.deadline }

// Deliverable returns the revealed fix. Before REVEALED the deliverable is
// sealed and the call fails with ErrInvalidState.
func (c *Contract) Deliverable() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state < StateRevealed {
		return "", fmt.Errorf("%w: deliverable sealed until reveal", ErrInvalidState)
	}
	return c.revealed, nil
}

// Snapshot returns a read-only copy of the contract for audit and logging.
func (c *Contract) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Contract) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		ID:          c.id,
		JobID:       c.jobID,
		State:       c.state,
		Outcome:     c.outcome,
		Bounty:      cloneBigInt(c.bounty),
		AgentBond:   cloneBigInt(c.agentBond),
		UserDeposit: cloneBigInt(c.userDeposit),
		HeldUser:    cloneBigInt(c.heldUser),
		HeldAgent:   cloneBigInt(c.heldAgent),
		Commitment:  c.commitment,
		CreatedAt:   c.createdAt,
		Deadline:    c.deadline,
		SettledAt:   c.settledAt,
	}
	if c.agent != nil {
		snap.Agent = c.agent.Name()
	}
	if c.user != nil {
		snap.User = c.user.Name()
	}
	return snap
}

// Snapshot is an immutable view of a contract at one point in its lifecycle.
// The sealed deliverable is deliberately absent: snapshots feed observers and
// audit records, neither of which may see unrevealed content.
type Snapshot struct {
	ID          [32]byte
	JobID       string
	State       State
	Outcome     Outcome
	Bounty      *big.Int
	AgentBond   *big.Int
	UserDeposit *big.Int
	HeldUser    *big.Int
	HeldAgent   *big.Int
	Commitment  [32]byte
	Agent       string
	User        string
	CreatedAt   int64
	Deadline    int64
	SettledAt   int64
}

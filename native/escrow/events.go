package escrow

import (
	"encoding/hex"
	"strconv"

	"patchdao/core/types"
)

const (
	EventTypeContractCreated   = "escrow.created"
	EventTypeContractCommitted = "escrow.committed"
	EventTypeContractFunded    = "escrow.funded"
	EventTypeContractRevealed  = "escrow.revealed"
	EventTypeContractSettled   = "escrow.settled"
	EventTypeContractSlashed   = "escrow.slashed"
	EventTypeContractExpired   = "escrow.expired"
)

// TerminalEventTypes lists the event types that mark a contract as settled.
// Audit sinks subscribe to exactly these.
var TerminalEventTypes = []string{
	EventTypeContractSettled,
	EventTypeContractSlashed,
	EventTypeContractExpired,
}

// ContractEvent adapts a contract snapshot to the events.Event contract while
// keeping the full payload reachable for subscribers that want it.
type ContractEvent struct {
	evt *types.Event
}

// EventType implements the events.Event interface.
func (e ContractEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

// Event returns the underlying typed payload.
func (e ContractEvent) Event() *types.Event { return e.evt }

// NewCreatedEvent returns the canonical payload for a newly opened contract.
func NewCreatedEvent(s *Snapshot) ContractEvent {
	return newContractEvent(EventTypeContractCreated, s)
}

// NewCommittedEvent returns the payload emitted when the agent's commitment
// and bond are locked in.
func NewCommittedEvent(s *Snapshot) ContractEvent {
	return newContractEvent(EventTypeContractCommitted, s)
}

// NewFundedEvent returns the payload emitted when the user's bounty and
// deposit enter escrow.
func NewFundedEvent(s *Snapshot) ContractEvent {
	return newContractEvent(EventTypeContractFunded, s)
}

// NewRevealedEvent returns the payload emitted when the deliverable is
// unsealed after a successful binding check.
func NewRevealedEvent(s *Snapshot) ContractEvent {
	return newContractEvent(EventTypeContractRevealed, s)
}

// NewSettledEvent returns the payload emitted on the settle and dispute
// branches; the outcome attribute distinguishes them.
func NewSettledEvent(s *Snapshot) ContractEvent {
	return newContractEvent(EventTypeContractSettled, s)
}

// NewSlashedEvent returns the payload emitted when a commitment violation
// forfeits the agent's escrow.
func NewSlashedEvent(s *Snapshot, reason string) ContractEvent {
	evt := newContractEvent(EventTypeContractSlashed, s)
	evt.evt.Attributes["reason"] = reason
	return evt
}

// NewExpiredEvent returns the payload emitted when a stalled contract is
// unwound after its deadline.
func NewExpiredEvent(s *Snapshot) ContractEvent {
	return newContractEvent(EventTypeContractExpired, s)
}

func newContractEvent(eventType string, s *Snapshot) ContractEvent {
	attrs := make(map[string]string)
	evt := ContractEvent{evt: &types.Event{Type: eventType, Attributes: attrs}}
	if s == nil {
		return evt
	}
	attrs["id"] = hex.EncodeToString(s.ID[:])
	attrs["jobId"] = s.JobID
	attrs["state"] = s.State.String()
	attrs["bounty"] = s.Bounty.String()
	attrs["agentBond"] = s.AgentBond.String()
	attrs["userDeposit"] = s.UserDeposit.String()
	attrs["heldUser"] = s.HeldUser.String()
	attrs["heldAgent"] = s.HeldAgent.String()
	attrs["createdAt"] = strconv.FormatInt(s.CreatedAt, 10)
	attrs["deadline"] = strconv.FormatInt(s.Deadline, 10)
	if s.Outcome != OutcomeNone {
		attrs["outcome"] = string(s.Outcome)
	}
	if s.Commitment != ([32]byte{}) {
		attrs["commitment"] = hex.EncodeToString(s.Commitment[:])
	}
	if s.Agent != "" {
		attrs["agent"] = s.Agent
	}
	if s.User != "" {
		attrs["user"] = s.User
	}
	if s.SettledAt != 0 {
		attrs["settledAt"] = strconv.FormatInt(s.SettledAt, 10)
	}
	return evt
}

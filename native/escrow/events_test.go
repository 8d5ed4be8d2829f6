package escrow

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContractEventAttributes(t *testing.T) {
	snap := &Snapshot{
		ID:          [32]byte{0xAB},
		JobID:       "job-007",
		State:       StateFunded,
		Bounty:      big.NewInt(50_000),
		AgentBond:   big.NewInt(500_000),
		UserDeposit: big.NewInt(100_000),
		HeldUser:    big.NewInt(150_000),
		HeldAgent:   big.NewInt(500_000),
		Commitment:  CommitDigest("fix"),
		Agent:       "agent",
		User:        "user",
		CreatedAt:   1_700_000_000,
		Deadline:    1_700_086_400,
	}
	evt := NewFundedEvent(snap)
	require.Equal(t, EventTypeContractFunded, evt.EventType())

	payload := evt.Event()
	attrs := payload.Attributes
	require.Equal(t, "job-007", attrs["jobId"])
	require.Equal(t, "FUNDED", attrs["state"])
	require.Equal(t, "50000", attrs["bounty"])
	require.Equal(t, "150000", attrs["heldUser"])
	require.Equal(t, "500000", attrs["heldAgent"])
	require.Equal(t, "agent", attrs["agent"])
	require.Equal(t, "user", attrs["user"])
	commitment := CommitDigest("fix")
	require.Equal(t, hex.EncodeToString(commitment[:]), attrs["commitment"])
	_, hasOutcome := payload.Attribute("outcome")
	require.False(t, hasOutcome)
	_, hasSettledAt := payload.Attribute("settledAt")
	require.False(t, hasSettledAt)
}

func TestSlashedEventCarriesReason(t *testing.T) {
	snap := &Snapshot{
		JobID:     "job-007",
		State:     StateSettled,
		Outcome:   SlashedOutcome(SlashReasonCommitmentMismatch),
		Bounty:    big.NewInt(1),
		AgentBond: big.NewInt(10), UserDeposit: big.NewInt(2),
		HeldUser: big.NewInt(0), HeldAgent: big.NewInt(0),
		SettledAt: 1_700_000_100,
	}
	evt := NewSlashedEvent(snap, SlashReasonCommitmentMismatch)
	require.Equal(t, EventTypeContractSlashed, evt.EventType())
	reason, ok := evt.Event().Attribute("reason")
	require.True(t, ok)
	require.Equal(t, SlashReasonCommitmentMismatch, reason)
	outcome, ok := evt.Event().Attribute("outcome")
	require.True(t, ok)
	require.Equal(t, "slashed:commitment_mismatch", outcome)
}

func TestNilSnapshotEventIsEmptyButTyped(t *testing.T) {
	evt := NewCreatedEvent(nil)
	require.Equal(t, EventTypeContractCreated, evt.EventType())
	require.Empty(t, evt.Event().Attributes)
}

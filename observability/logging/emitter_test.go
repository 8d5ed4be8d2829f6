package logging

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"patchdao/native/escrow"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWithWriter(&buf, "patchdao-escrow", "test")
	log.Info("hello", "job", "job-001")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "patchdao-escrow", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "job-001", line["job"])
	require.Contains(t, line, "timestamp")
}

func TestEmitterLogsEventAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWithWriter(&buf, "patchdao-escrow", "test")
	emitter := NewEmitter(log)

	snap := &escrow.Snapshot{
		JobID:       "job-042",
		State:       escrow.StateFunded,
		Bounty:      big.NewInt(50_000),
		AgentBond:   big.NewInt(500_000),
		UserDeposit: big.NewInt(100_000),
		HeldUser:    big.NewInt(150_000),
		HeldAgent:   big.NewInt(500_000),
	}
	emitter.Emit(escrow.NewFundedEvent(snap))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, escrow.EventTypeContractFunded, line["message"])
	require.Equal(t, "job-042", line["jobId"])
	require.Equal(t, "FUNDED", line["state"])
	require.Equal(t, "150000", line["heldUser"])
}

func TestEmitterToleratesOpaqueEvents(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewEmitter(SetupWithWriter(&buf, "patchdao-escrow", ""))
	emitter.Emit(opaqueEvent{})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "custom.event", line["message"])
}

type opaqueEvent struct{}

func (opaqueEvent) EventType() string { return "custom.event" }

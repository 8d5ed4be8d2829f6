package metrics

import (
	"math/big"

	"patchdao/core/events"
	"patchdao/core/types"
	"patchdao/native/escrow"
)

// Emitter feeds escrow lifecycle events into the prometheus registry. It is
// wired next to the logging emitter via events.Multi.
type Emitter struct {
	metrics *EscrowMetrics
}

// NewEmitter returns an emitter backed by the shared escrow registry.
func NewEmitter() *Emitter {
	return &Emitter{metrics: Escrow()}
}

type payloadCarrier interface {
	Event() *types.Event
}

// Emit implements the events.Emitter interface.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || e.metrics == nil || evt == nil {
		return
	}
	e.metrics.ObserveTransition(evt.EventType())

	carrier, ok := evt.(payloadCarrier)
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}

	switch evt.EventType() {
	case escrow.EventTypeContractCommitted:
		e.metrics.AddValueHeld(attrAmount(payload, "agentBond"))
	case escrow.EventTypeContractFunded:
		held := new(big.Int).Add(attrAmount(payload, "bounty"), attrAmount(payload, "userDeposit"))
		e.metrics.AddValueHeld(held)
	case escrow.EventTypeContractSettled, escrow.EventTypeContractSlashed, escrow.EventTypeContractExpired:
		// Everything a bound party escrowed has just left custody.
		released := big.NewInt(0)
		if _, bound := payload.Attribute("agent"); bound {
			released.Add(released, attrAmount(payload, "agentBond"))
		}
		if _, bound := payload.Attribute("user"); bound {
			released.Add(released, attrAmount(payload, "bounty"))
			released.Add(released, attrAmount(payload, "userDeposit"))
		}
		e.metrics.AddValueHeld(new(big.Int).Neg(released))
		if outcome, ok := payload.Attribute("outcome"); ok {
			e.metrics.ObserveSettlement(outcome)
		}
		if evt.EventType() == escrow.EventTypeContractSlashed {
			reason, _ := payload.Attribute("reason")
			e.metrics.ObserveSlash(reason)
		}
	}
}

func attrAmount(payload *types.Event, key string) *big.Int {
	raw, ok := payload.Attribute(key)
	if !ok {
		return big.NewInt(0)
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return big.NewInt(0)
	}
	return amount
}

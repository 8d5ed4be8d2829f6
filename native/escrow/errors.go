package escrow

import (
	"errors"

	"patchdao/native/ledger"
)

var (
	// ErrInsufficientFunds reports a wallet below the required lock amount.
	// Recoverable: the contract stays in its prior state and the call may be
	// retried once the wallet is funded. Aliased from the ledger so callers
	// can match either package's sentinel.
	ErrInsufficientFunds = ledger.ErrInsufficientFunds

	// ErrInvalidState reports an operation invoked out of sequence. This is
	// a coordination bug in the caller, not a protocol outcome; the contract
	// is left unchanged.
	ErrInvalidState = errors.New("escrow: invalid state for operation")

	// ErrFraudSlashed reports that a reveal attempt exposed a commitment
	// mismatch. It is not retryable: the contract has already settled by
	// slashing the agent, and the error is the caller's definitive signal
	// that cheating was detected.
	ErrFraudSlashed = errors.New("escrow: deliverable does not match commitment, agent slashed")

	errNilWallet = errors.New("escrow: wallet required")
)

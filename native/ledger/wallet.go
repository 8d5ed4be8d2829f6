package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInsufficientFunds is returned when a debit would drive a wallet
	// balance below zero. The wallet is left untouched.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	errNegativeAmount = errors.New("ledger: amount must be non-negative")
)

// Wallet is a named account holding a non-negative balance in the protocol's
// base unit. Debit and credit are atomic with respect to each other, so
// concurrent contracts touching the same party cannot interleave a
// read-balance-then-mutate sequence.
type Wallet struct {
	mu      sync.Mutex
	name    string
	balance *big.Int
}

// NewWallet creates a wallet with the given opening balance. A nil balance is
// treated as zero; a negative one is rejected.
func NewWallet(name string, balance *big.Int) (*Wallet, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("ledger: wallet name required")
	}
	amt := big.NewInt(0)
	if balance != nil {
		if balance.Sign() < 0 {
			return nil, fmt.Errorf("ledger: opening balance must be non-negative")
		}
		amt = new(big.Int).Set(balance)
	}
	return &Wallet{name: trimmed, balance: amt}, nil
}

// Name returns the wallet's account identifier.
func (w *Wallet) Name() string { return w.name }

// Balance returns a copy of the current balance.
func (w *Wallet) Balance() *big.Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return new(big.Int).Set(w.balance)
}

// Credit adds amount to the wallet. Crediting zero is a no-op.
func (w *Wallet) Credit(amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = new(big.Int).Add(w.balance, amount)
	return nil
}

// Debit removes amount from the wallet. The check and the mutation happen
// under one lock: either the full amount leaves the wallet or nothing does.
func (w *Wallet) Debit(amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientFunds, w.name, w.balance, amount)
	}
	w.balance = new(big.Int).Sub(w.balance, amount)
	return nil
}

// Ledger is a registry of wallets keyed by account name. Wallets persist
// across contracts; everything else in the protocol is per-job.
type Ledger struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
}

// NewLedger returns an empty wallet registry.
func NewLedger() *Ledger {
	return &Ledger{wallets: make(map[string]*Wallet)}
}

// Create registers a new wallet. Registering a name twice is an error.
func (l *Ledger) Create(name string, balance *big.Int) (*Wallet, error) {
	wallet, err := NewWallet(name, balance)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.wallets[wallet.name]; exists {
		return nil, fmt.Errorf("ledger: wallet %s already exists", wallet.name)
	}
	l.wallets[wallet.name] = wallet
	return wallet, nil
}

// Get returns the wallet registered under name.
func (l *Ledger) Get(name string) (*Wallet, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	wallet, ok := l.wallets[strings.TrimSpace(name)]
	return wallet, ok
}

// Names returns the registered account names in sorted order.
func (l *Ledger) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.wallets))
	for name := range l.wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalBalance sums every registered wallet. Useful for conservation audits:
// funds held inside an unsettled contract are not in any wallet, so the total
// only matches the opening supply once all contracts have settled.
func (l *Ledger) TotalBalance() *big.Int {
	l.mu.RLock()
	wallets := make([]*Wallet, 0, len(l.wallets))
	for _, wallet := range l.wallets {
		wallets = append(wallets, wallet)
	}
	l.mu.RUnlock()
	total := big.NewInt(0)
	for _, wallet := range wallets {
		total.Add(total, wallet.Balance())
	}
	return total
}

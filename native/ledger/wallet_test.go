package ledger

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWalletValidation(t *testing.T) {
	_, err := NewWallet("", big.NewInt(1))
	require.Error(t, err)
	_, err = NewWallet("user", big.NewInt(-1))
	require.Error(t, err)

	wallet, err := NewWallet(" user ", nil)
	require.NoError(t, err)
	require.Equal(t, "user", wallet.Name())
	require.Zero(t, wallet.Balance().Sign())
}

func TestDebitIsAllOrNothing(t *testing.T) {
	wallet, err := NewWallet("user", big.NewInt(100))
	require.NoError(t, err)

	err = wallet.Debit(big.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Zero(t, wallet.Balance().Cmp(big.NewInt(100)))

	require.NoError(t, wallet.Debit(big.NewInt(100)))
	require.Zero(t, wallet.Balance().Sign())

	err = wallet.Debit(big.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestNegativeAmountsRejected(t *testing.T) {
	wallet, err := NewWallet("user", big.NewInt(100))
	require.NoError(t, err)
	require.Error(t, wallet.Debit(big.NewInt(-5)))
	require.Error(t, wallet.Credit(big.NewInt(-5)))
	require.Zero(t, wallet.Balance().Cmp(big.NewInt(100)))
}

func TestZeroAndNilAmountsAreNoops(t *testing.T) {
	wallet, err := NewWallet("user", big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, wallet.Debit(nil))
	require.NoError(t, wallet.Credit(nil))
	require.NoError(t, wallet.Debit(big.NewInt(0)))
	require.NoError(t, wallet.Credit(big.NewInt(0)))
	require.Zero(t, wallet.Balance().Cmp(big.NewInt(100)))
}

func TestBalanceReturnsCopy(t *testing.T) {
	wallet, err := NewWallet("user", big.NewInt(100))
	require.NoError(t, err)
	balance := wallet.Balance()
	balance.SetInt64(0)
	require.Zero(t, wallet.Balance().Cmp(big.NewInt(100)))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	wallet, err := NewWallet("user", big.NewInt(1000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := wallet.Debit(big.NewInt(100)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, succeeded)
	require.Zero(t, wallet.Balance().Sign())
}

func TestLedgerRegistry(t *testing.T) {
	l := NewLedger()
	user, err := l.Create("user", big.NewInt(100))
	require.NoError(t, err)
	_, err = l.Create("agent", big.NewInt(50))
	require.NoError(t, err)

	_, err = l.Create("user", big.NewInt(1))
	require.Error(t, err)

	got, ok := l.Get("user")
	require.True(t, ok)
	require.Same(t, user, got)
	_, ok = l.Get("nobody")
	require.False(t, ok)

	require.Equal(t, []string{"agent", "user"}, l.Names())
	require.Zero(t, l.TotalBalance().Cmp(big.NewInt(150)))
}

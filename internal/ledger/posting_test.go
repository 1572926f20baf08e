package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostingDelta(t *testing.T) {
	cases := []struct {
		name   string
		nature AccountNature
		debit  float64
		credit float64
		want   float64
	}{
		{"debit normal grows with debit", NatureDebit, 100, 0, 100},
		{"debit normal shrinks with credit", NatureDebit, 0, 100, -100},
		{"credit normal grows with credit", NatureCredit, 0, 100, 100},
		{"credit normal shrinks with debit", NatureCredit, 100, 0, -100},
		{"net movement", NatureDebit, 80, 30, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, PostingDelta(tc.nature, tc.debit, tc.credit))
		})
	}
}

func TestApplyPostingLeavesAccountUntouched(t *testing.T) {
	account := Account{ID: 1, Nature: NatureDebit, Balance: 500}
	line := JournalLine{AccountID: 1, Debit: 120}

	require.Equal(t, 620.0, ApplyPosting(account, line))
	require.Equal(t, 500.0, account.Balance)
}

func TestNatureFor(t *testing.T) {
	require.Equal(t, NatureDebit, NatureFor(AccountTypeAsset))
	require.Equal(t, NatureDebit, NatureFor(AccountTypeExpense))
	require.Equal(t, NatureCredit, NatureFor(AccountTypeLiability))
	require.Equal(t, NatureCredit, NatureFor(AccountTypeEquity))
	require.Equal(t, NatureCredit, NatureFor(AccountTypeRevenue))
}

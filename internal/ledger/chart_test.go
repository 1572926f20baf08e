package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestChartIndex(t *testing.T) {
	chart := NewChart([]Account{
		{ID: 1, Code: "1000", Name: "Assets", Type: AccountTypeAsset, Nature: NatureDebit},
		{ID: 2, Code: "1100", Name: "Cash", Type: AccountTypeAsset, Nature: NatureDebit, Postable: true, Balance: 300, ParentID: ptr(1)},
		{ID: 3, Code: "1200", Name: "Bank", Type: AccountTypeAsset, Nature: NatureDebit, Postable: true, Balance: 700, ParentID: ptr(1)},
	})

	cash, ok := chart.Get(2)
	require.True(t, ok)
	require.Equal(t, "Cash", cash.Name)

	bank, ok := chart.GetByCode("1200")
	require.True(t, ok)
	require.Equal(t, int64(3), bank.ID)

	require.Equal(t, []int64{2, 3}, chart.Children(1))
	require.False(t, chart.IsLeaf(1))
	require.True(t, chart.IsLeaf(2))
	require.Equal(t, 1000.0, chart.RolledBalance(1))

	_, ok = chart.Get(99)
	require.False(t, ok)
	require.Equal(t, 0.0, chart.RolledBalance(99))
}

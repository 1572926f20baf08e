package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func balancedEntry() JournalEntry {
	return JournalEntry{
		Status: EntryStatusDraft,
		Lines: []JournalLine{
			{AccountID: 1, Debit: 100, LineNo: 1},
			{AccountID: 2, Credit: 100, LineNo: 2},
		},
	}
}

func TestValidateBalancedEntry(t *testing.T) {
	entry := balancedEntry()
	require.Empty(t, entry.Validate())
}

func TestValidateWithinTolerance(t *testing.T) {
	entry := JournalEntry{Lines: []JournalLine{
		{AccountID: 1, Debit: 100.004, LineNo: 1},
		{AccountID: 2, Credit: 100, LineNo: 2},
	}}
	require.Empty(t, entry.Validate())
}

func TestValidateViolations(t *testing.T) {
	cases := []struct {
		name  string
		entry JournalEntry
		want  int
	}{
		{
			name:  "too few lines",
			entry: JournalEntry{Lines: []JournalLine{{AccountID: 1, Debit: 50, LineNo: 1}}},
			want:  2, // single line is also unbalanced
		},
		{
			name: "unbalanced",
			entry: JournalEntry{Lines: []JournalLine{
				{AccountID: 1, Debit: 100, LineNo: 1},
				{AccountID: 2, Credit: 90, LineNo: 2},
			}},
			want: 1,
		},
		{
			name: "empty line",
			entry: JournalEntry{Lines: []JournalLine{
				{AccountID: 1, Debit: 100, LineNo: 1},
				{AccountID: 2, Credit: 100, LineNo: 2},
				{AccountID: 3, LineNo: 3},
			}},
			want: 1,
		},
		{
			name: "both sides on one line",
			entry: JournalEntry{Lines: []JournalLine{
				{AccountID: 1, Debit: 100, Credit: 100, LineNo: 1},
				{AccountID: 2, Debit: 100, Credit: 100, LineNo: 2},
			}},
			want: 2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Len(t, tc.entry.Validate(), tc.want)
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	entry := JournalEntry{Lines: []JournalLine{
		{AccountID: 1, LineNo: 1},
	}}
	violations := entry.Validate()
	// too few lines + empty line; totals are zero so they balance
	require.Len(t, violations, 2)
}

func TestCalculateTotals(t *testing.T) {
	entry := balancedEntry()
	entry.CalculateTotals()
	require.Equal(t, 100.0, entry.TotalDebit)
	require.Equal(t, 100.0, entry.TotalCredit)

	entry.Lines = append(entry.Lines, JournalLine{AccountID: 3, Debit: 25, LineNo: 3})
	entry.CalculateTotals()
	require.Equal(t, 125.0, entry.TotalDebit)
	require.Equal(t, 100.0, entry.TotalCredit)
}

func TestApproveRequiresDraft(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := balancedEntry()
	require.NoError(t, entry.Approve("maha", now))
	require.Equal(t, EntryStatusApproved, entry.Status)
	require.Equal(t, "maha", entry.ApprovedBy)
	require.Equal(t, now, *entry.ApprovedAt)

	require.ErrorIs(t, entry.Approve("maha", now), ErrInvalidTransition)
}

func TestPostRequiresApproved(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := balancedEntry()
	require.ErrorIs(t, entry.MarkPosted("omar", now), ErrInvalidTransition)

	require.NoError(t, entry.Approve("maha", now))
	require.NoError(t, entry.MarkPosted("omar", now))
	require.Equal(t, EntryStatusPosted, entry.Status)
	require.Equal(t, "omar", entry.PostedBy)

	require.ErrorIs(t, entry.MarkPosted("omar", now), ErrInvalidTransition)
}

func TestCancelFailsOnlyWhenPosted(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	draft := balancedEntry()
	require.NoError(t, draft.Cancel())
	require.Equal(t, EntryStatusCancelled, draft.Status)

	approved := balancedEntry()
	require.NoError(t, approved.Approve("maha", now))
	require.NoError(t, approved.Cancel())

	posted := balancedEntry()
	require.NoError(t, posted.Approve("maha", now))
	require.NoError(t, posted.MarkPosted("omar", now))
	require.ErrorIs(t, posted.Cancel(), ErrEntryPosted)

	cancelled := balancedEntry()
	require.NoError(t, cancelled.Cancel())
	require.NoError(t, cancelled.Cancel())
}

func TestNextEntryNumber(t *testing.T) {
	cases := []struct {
		name string
		year int
		last string
		want string
	}{
		{"first of year", 2025, "", "JE20250001"},
		{"increments", 2025, "JE20250007", "JE20250008"},
		{"new year resets", 2026, "JE20259999", "JE20260001"},
		{"corrupt suffix falls back", 2025, "JE2025XYZW", "JE20250001"},
		{"foreign prefix resets", 2025, "IN20250042", "JE20250001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NextEntryNumber(tc.year, tc.last))
		})
	}
}

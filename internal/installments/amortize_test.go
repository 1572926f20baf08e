package installments

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthlyInstallmentZeroRate(t *testing.T) {
	require.Equal(t, 1000.0, MonthlyInstallment(12000, 0, 12))
}

func TestMonthlyInstallmentZeroCount(t *testing.T) {
	require.Equal(t, 0.0, MonthlyInstallment(12000, 12, 0))
	require.Equal(t, 0.0, MonthlyInstallment(0, 0, 0))
}

func TestMonthlyInstallmentAnnuityFormula(t *testing.T) {
	// financed 8000 at 12% nominal over 12 months: r = 1%/month
	payment := MonthlyInstallment(8000, 12, 12)
	require.InDelta(t, 710.05, payment, 0.01)

	// reproduce the closed form directly
	r := 0.01
	factor := math.Pow(1.01, 12)
	require.InDelta(t, 8000*r*factor/(factor-1), payment, 1e-9)
}

func TestBuildScheduleShape(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	monthly := MonthlyInstallment(8000, 12, 12)
	schedule := BuildSchedule(start, 8000, 12, 12, monthly)

	require.Len(t, schedule, 12)
	for i, p := range schedule {
		require.Equal(t, i+1, p.Seq)
		require.Equal(t, start.AddDate(0, i, 0), p.DueDate)
		require.Equal(t, monthly, p.Amount)
		require.Equal(t, PeriodStatusPending, p.Status)
		require.InDelta(t, p.Amount, p.Principal+p.Interest, 1e-9)
	}

	// due dates advance by exactly one calendar month
	for i := 1; i < len(schedule); i++ {
		require.Equal(t, schedule[i-1].DueDate.AddDate(0, 1, 0), schedule[i].DueDate)
	}
}

func TestBuildScheduleRepaysPrincipal(t *testing.T) {
	monthly := MonthlyInstallment(8000, 12, 12)
	schedule := BuildSchedule(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 8000, 12, 12, monthly)

	var principal float64
	for _, p := range schedule {
		principal += p.Principal
	}
	require.InDelta(t, 8000, principal, 0.01*12)
	require.InDelta(t, 0, schedule[len(schedule)-1].RemainingAfter, 0.01)
}

func TestBuildScheduleZeroRate(t *testing.T) {
	schedule := BuildSchedule(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 12000, 0, 12, 1000)

	require.Len(t, schedule, 12)
	for _, p := range schedule {
		require.Equal(t, 0.0, p.Interest)
		require.Equal(t, 1000.0, p.Principal)
	}
	require.InDelta(t, 0, schedule[11].RemainingAfter, 1e-9)
}

func TestBuildScheduleDegenerate(t *testing.T) {
	require.Nil(t, BuildSchedule(time.Now(), 1000, 5, 0, 0))
}

func TestScheduleQueries(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }
	schedule := []Period{
		{Seq: 1, DueDate: d(1), Amount: 100, Status: PeriodStatusPaid},
		{Seq: 2, DueDate: d(10), Amount: 100, Status: PeriodStatusOverdue},
		{Seq: 3, DueDate: d(20), Amount: 100, Status: PeriodStatusOverdue},
		{Seq: 4, DueDate: d(25), Amount: 100, Status: PeriodStatusPending},
		{Seq: 5, DueDate: d(30), Amount: 100, Status: PeriodStatusPending},
	}

	next, ok := NextDue(schedule)
	require.True(t, ok)
	require.Equal(t, 4, next.Seq)

	require.True(t, HasOverdue(schedule))
	require.Len(t, Overdue(schedule), 2)
	require.Equal(t, 200.0, TotalOverdue(schedule))

	allPaid := []Period{{Seq: 1, Status: PeriodStatusPaid}}
	_, ok = NextDue(allPaid)
	require.False(t, ok)
	require.False(t, HasOverdue(allPaid))
	require.Equal(t, 0.0, TotalOverdue(allPaid))
}

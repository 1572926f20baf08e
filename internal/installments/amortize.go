package installments

import (
	"math"
	"time"
)

// MonthlyInstallment computes the fixed monthly payment for a financed
// amount using the closed-form annuity formula with monthly rate
// r = annualRatePct/100/12:
//
//	payment = principal * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate degrades to straight-line principal/n. A zero period count
// returns 0; the caller must treat such a contract as degenerate.
func MonthlyInstallment(financedAmount, annualRatePct float64, numberOfInstallments int) float64 {
	if numberOfInstallments == 0 {
		return 0
	}
	if annualRatePct == 0 {
		return financedAmount / float64(numberOfInstallments)
	}
	r := annualRatePct / 100 / 12
	factor := math.Pow(1+r, float64(numberOfInstallments))
	return financedAmount * r * factor / (factor - 1)
}

// BuildSchedule generates the full repayment schedule: exactly n periods,
// due dates one calendar month apart starting at startDate, each period
// splitting the fixed payment into interest on the running balance and
// principal. The final period's remaining balance carries any residual
// rounding error uncorrected.
func BuildSchedule(startDate time.Time, financedAmount, annualRatePct float64, n int, monthlyAmount float64) []Period {
	if n <= 0 {
		return nil
	}
	r := annualRatePct / 100 / 12
	remaining := financedAmount
	schedule := make([]Period, 0, n)
	for i := 1; i <= n; i++ {
		interest := remaining * r
		principal := monthlyAmount - interest
		remaining -= principal
		schedule = append(schedule, Period{
			Seq:            i,
			DueDate:        startDate.AddDate(0, i-1, 0),
			Amount:         monthlyAmount,
			Principal:      principal,
			Interest:       interest,
			RemainingAfter: remaining,
			Status:         PeriodStatusPending,
		})
	}
	return schedule
}

// NextDue returns the earliest pending period by due date.
func NextDue(schedule []Period) (Period, bool) {
	var next Period
	found := false
	for _, p := range schedule {
		if p.Status != PeriodStatusPending {
			continue
		}
		if !found || p.DueDate.Before(next.DueDate) {
			next = p
			found = true
		}
	}
	return next, found
}

// Overdue returns every period marked overdue.
func Overdue(schedule []Period) []Period {
	var out []Period
	for _, p := range schedule {
		if p.Status == PeriodStatusOverdue {
			out = append(out, p)
		}
	}
	return out
}

// TotalOverdue sums the installment amounts of overdue periods.
func TotalOverdue(schedule []Period) float64 {
	var total float64
	for _, p := range schedule {
		if p.Status == PeriodStatusOverdue {
			total += p.Amount
		}
	}
	return total
}

// HasOverdue reports whether any period is overdue.
func HasOverdue(schedule []Period) bool {
	for _, p := range schedule {
		if p.Status == PeriodStatusOverdue {
			return true
		}
	}
	return false
}

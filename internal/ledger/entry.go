package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// balanceTolerance absorbs rounding drift when comparing debit and
// credit totals. Fixed business rule, not configurable.
const balanceTolerance = 0.01

// entryNumberPrefix is the two-letter prefix of generated entry numbers.
const entryNumberPrefix = "JE"

// Validate checks the entry against the double-entry rules and returns
// every violation found, in rule order. An empty slice means valid.
// It never short-circuits and has no side effects.
func (e *JournalEntry) Validate() []string {
	var violations []string
	if len(e.Lines) < 2 {
		violations = append(violations, "entry requires at least two lines")
	}
	var debit, credit float64
	for _, line := range e.Lines {
		debit += line.Debit
		credit += line.Credit
	}
	if math.Abs(debit-credit) > balanceTolerance {
		violations = append(violations, fmt.Sprintf("debit total %.2f does not equal credit total %.2f", debit, credit))
	}
	for _, line := range e.Lines {
		if line.Debit == 0 && line.Credit == 0 {
			violations = append(violations, fmt.Sprintf("line %d has neither debit nor credit", line.LineNo))
		}
	}
	for _, line := range e.Lines {
		if line.Debit != 0 && line.Credit != 0 {
			violations = append(violations, fmt.Sprintf("line %d has both debit and credit", line.LineNo))
		}
	}
	return violations
}

// CalculateTotals recomputes TotalDebit and TotalCredit from the current
// lines. Callers must invoke it after every line mutation; it is not
// triggered automatically.
func (e *JournalEntry) CalculateTotals() {
	var debit, credit float64
	for _, line := range e.Lines {
		debit += line.Debit
		credit += line.Credit
	}
	e.TotalDebit = debit
	e.TotalCredit = credit
}

// Approve moves a draft entry to APPROVED and stamps the approver.
func (e *JournalEntry) Approve(approvedBy string, at time.Time) error {
	if e.Status != EntryStatusDraft {
		return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, e.Status)
	}
	e.Status = EntryStatusApproved
	e.ApprovedBy = approvedBy
	e.ApprovedAt = &at
	return nil
}

// MarkPosted moves an approved entry to POSTED and stamps the poster.
// Applying the balance deltas is the posting workflow's responsibility,
// see Service.PostEntry.
func (e *JournalEntry) MarkPosted(postedBy string, at time.Time) error {
	if e.Status != EntryStatusApproved {
		return fmt.Errorf("%w: post from %s", ErrInvalidTransition, e.Status)
	}
	e.Status = EntryStatusPosted
	e.PostedBy = postedBy
	e.PostedAt = &at
	return nil
}

// Cancel moves the entry to CANCELLED. Posted entries are immutable and
// cannot be cancelled; any other status may be.
func (e *JournalEntry) Cancel() error {
	if e.Status == EntryStatusPosted {
		return fmt.Errorf("%w: cancel from %s", ErrEntryPosted, e.Status)
	}
	e.Status = EntryStatusCancelled
	return nil
}

// NextEntryNumber produces the entry number that follows last within the
// given year. Sequences restart at 0001 each calendar year. If last does
// not belong to year, or its suffix fails to parse as an integer, the
// sequence resets to 0001 rather than failing.
func NextEntryNumber(year int, last string) string {
	prefix := fmt.Sprintf("%s%04d", entryNumberPrefix, year)
	seq := 1
	if strings.HasPrefix(last, prefix) {
		if n, err := strconv.Atoi(last[len(prefix):]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

package ledger

// PostingDelta returns the signed balance change a line causes on an
// account of the given nature: debit-normal accounts grow with debits,
// credit-normal accounts grow with credits.
func PostingDelta(nature AccountNature, debit, credit float64) float64 {
	if nature == NatureDebit {
		return debit - credit
	}
	return credit - debit
}

// ApplyPosting returns the account's balance after applying one line.
// The account itself is never mutated here; persisting the new balance
// belongs to the posting workflow.
func ApplyPosting(account Account, line JournalLine) float64 {
	return account.Balance + PostingDelta(account.Nature, line.Debit, line.Credit)
}

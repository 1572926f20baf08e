package ledger

import (
	"errors"
	"time"
)

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountNature tells which side grows an account's balance.
type AccountNature string

const (
	NatureDebit  AccountNature = "DEBIT"
	NatureCredit AccountNature = "CREDIT"
)

// EntryStatus enumerates journal entry lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "DRAFT"
	EntryStatusApproved  EntryStatus = "APPROVED"
	EntryStatusPosted    EntryStatus = "POSTED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// Account models a chart of accounts node. The tree is kept flat:
// parents are referenced by id, never by pointer.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	Nature    AccountNature
	Postable  bool
	Balance   float64
	ParentID  *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalEntry is one balanced accounting transaction.
type JournalEntry struct {
	ID           int64
	Number       string
	Date         time.Time
	Description  string
	Status       EntryStatus
	TotalDebit   float64
	TotalCredit  float64
	Currency     string
	ExchangeRate float64
	ApprovedBy   string
	ApprovedAt   *time.Time
	PostedBy     string
	PostedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine is one debit-or-credit leg of an entry.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       float64
	Credit      float64
	Memo        string
	CheckNumber string
	BankRef     string
	LineNo      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: entry requires at least two lines")
	// ErrUnbalanced indicates debit total != credit total.
	ErrUnbalanced = errors.New("ledger: entry lines must balance")
	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("ledger: invalid status transition")
	// ErrEntryPosted indicates an attempted mutation of a posted entry.
	ErrEntryPosted = errors.New("ledger: posted entries are immutable")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrAccountNotPostable indicates a posting against a summary account.
	ErrAccountNotPostable = errors.New("ledger: account does not accept postings")
	// ErrAccountHasChildren blocks deleting a summary account with children.
	ErrAccountHasChildren = errors.New("ledger: account has child accounts")
	// ErrAccountHasPostings blocks deleting an account with journal lines.
	ErrAccountHasPostings = errors.New("ledger: account has postings")
	// ErrDuplicateCode indicates an account code collision.
	ErrDuplicateCode = errors.New("ledger: account code already exists")
)

// NatureFor returns the normal balance side for an account type.
func NatureFor(t AccountType) AccountNature {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NatureDebit
	default:
		return NatureCredit
	}
}

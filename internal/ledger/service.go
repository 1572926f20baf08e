package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daftar-erp/daftar/internal/shared"
)

// Repository abstracts transactional repository behaviour.
type Repository interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	ListEntries(ctx context.Context) ([]JournalEntry, error)
	GetEntry(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within a transaction.
type TxRepository interface {
	InsertAccount(ctx context.Context, account Account) (Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (Account, error)
	UpdateAccountBalance(ctx context.Context, id int64, balance float64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
	CountPostings(ctx context.Context, id int64) (int64, error)
	DeactivateAccount(ctx context.Context, id int64) error

	LastEntryNumber(ctx context.Context, year int) (string, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	ReplaceLines(ctx context.Context, entryID int64, lines []JournalLine) error
	UpdateEntry(ctx context.Context, entry JournalEntry) error
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ValidationError carries every rule violation of an entry.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "ledger: validation failed: " + strings.Join(e.Violations, "; ")
}

// LineInput describes one leg of a new or edited entry.
type LineInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	Memo        string
	CheckNumber string
	BankRef     string
}

// CreateEntryInput groups fields required to create a draft entry.
type CreateEntryInput struct {
	Date         time.Time
	Description  string
	Currency     string
	ExchangeRate float64
	CreatedBy    string
	Lines        []LineInput
}

// AccountInput groups fields required to create an account.
type AccountInput struct {
	Code     string
	Name     string
	Type     AccountType
	Nature   AccountNature
	Postable bool
	ParentID *int64
}

// Service coordinates journal entry lifecycle and chart maintenance.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateEntry validates the input and stores a new DRAFT entry. The entry
// number is assigned inside the transaction from the year's last number.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (JournalEntry, error) {
	entry := JournalEntry{
		Date:         input.Date,
		Description:  input.Description,
		Status:       EntryStatusDraft,
		Currency:     input.Currency,
		ExchangeRate: input.ExchangeRate,
		Lines:        toLines(0, input.Lines),
	}
	if entry.Currency == "" {
		entry.Currency = "SAR"
	}
	if entry.ExchangeRate == 0 {
		entry.ExchangeRate = 1
	}
	if violations := entry.Validate(); len(violations) > 0 {
		return JournalEntry{}, &ValidationError{Violations: violations}
	}
	entry.CalculateTotals()

	var created JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, line := range entry.Lines {
			account, err := tx.GetAccount(ctx, line.AccountID)
			if err != nil {
				return err
			}
			if !account.Postable {
				return fmt.Errorf("%w: account %s", ErrAccountNotPostable, account.Code)
			}
		}
		last, err := tx.LastEntryNumber(ctx, entry.Date.Year())
		if err != nil {
			return err
		}
		entry.Number = NextEntryNumber(entry.Date.Year(), last)
		inserted, err := tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, input.CreatedBy, "journal.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// ReplaceLines swaps the entry's lines wholesale and recomputes totals.
// Only DRAFT entries are editable.
func (s *Service) ReplaceLines(ctx context.Context, entryID int64, lines []LineInput, actor string) (JournalEntry, error) {
	var updated JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status == EntryStatusPosted {
			return ErrEntryPosted
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, entry.Status)
		}
		entry.Lines = toLines(entry.ID, lines)
		if violations := entry.Validate(); len(violations) > 0 {
			return &ValidationError{Violations: violations}
		}
		entry.CalculateTotals()
		for _, line := range entry.Lines {
			account, err := tx.GetAccount(ctx, line.AccountID)
			if err != nil {
				return err
			}
			if !account.Postable {
				return fmt.Errorf("%w: account %s", ErrAccountNotPostable, account.Code)
			}
		}
		if err := tx.ReplaceLines(ctx, entry.ID, entry.Lines); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actor, "journal.edit", updated.ID, map[string]any{"lines": len(updated.Lines)})
	return updated, nil
}

// ApproveEntry transitions DRAFT -> APPROVED.
func (s *Service) ApproveEntry(ctx context.Context, entryID int64, approvedBy string) (JournalEntry, error) {
	var approved JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := entry.Approve(approvedBy, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		approved = entry
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, approvedBy, "journal.approve", approved.ID, map[string]any{"number": approved.Number})
	return approved, nil
}

// PostEntry transitions APPROVED -> POSTED and applies each line's signed
// delta to its account balance. Balances are written exactly once, here;
// they are never replayed from history afterwards.
func (s *Service) PostEntry(ctx context.Context, entryID int64, postedBy string) (JournalEntry, error) {
	var posted JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if violations := entry.Validate(); len(violations) > 0 {
			return &ValidationError{Violations: violations}
		}
		if err := entry.MarkPosted(postedBy, s.now()); err != nil {
			return err
		}
		for _, line := range entry.Lines {
			account, err := tx.GetAccountForUpdate(ctx, line.AccountID)
			if err != nil {
				return err
			}
			if !account.Postable {
				return fmt.Errorf("%w: account %s", ErrAccountNotPostable, account.Code)
			}
			if err := tx.UpdateAccountBalance(ctx, account.ID, ApplyPosting(account, line)); err != nil {
				return err
			}
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, postedBy, "journal.post", posted.ID, map[string]any{
		"number": posted.Number,
		"debit":  posted.TotalDebit,
		"credit": posted.TotalCredit,
	})
	return posted, nil
}

// CancelEntry transitions any non-POSTED entry to CANCELLED.
func (s *Service) CancelEntry(ctx context.Context, entryID int64, actor string) (JournalEntry, error) {
	var cancelled JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := entry.Cancel(); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		cancelled = entry
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actor, "journal.cancel", cancelled.ID, map[string]any{"number": cancelled.Number})
	return cancelled, nil
}

// CreateAccount stores a new chart-of-accounts node. When Nature is empty
// it defaults to the normal side of the account type.
func (s *Service) CreateAccount(ctx context.Context, input AccountInput) (Account, error) {
	account := Account{
		Code:     input.Code,
		Name:     input.Name,
		Type:     input.Type,
		Nature:   input.Nature,
		Postable: input.Postable,
		ParentID: input.ParentID,
		IsActive: true,
	}
	if account.Nature == "" {
		account.Nature = NatureFor(account.Type)
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.ParentID != nil {
			if _, err := tx.GetAccount(ctx, *input.ParentID); err != nil {
				return err
			}
		}
		inserted, err := tx.InsertAccount(ctx, account)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return created, nil
}

// DeleteAccount soft-deletes an account. Accounts with children or with
// existing postings are protected.
func (s *Service) DeleteAccount(ctx context.Context, id int64, actor string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetAccount(ctx, id); err != nil {
			return err
		}
		children, err := tx.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrAccountHasChildren
		}
		postings, err := tx.CountPostings(ctx, id)
		if err != nil {
			return err
		}
		if postings > 0 {
			return ErrAccountHasPostings
		}
		return tx.DeactivateAccount(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, "account.delete", id, nil)
	return nil
}

// ListAccounts retrieves the full chart of accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// LoadChart snapshots the chart of accounts into a flat index.
func (s *Service) LoadChart(ctx context.Context) (*Chart, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return NewChart(accounts), nil
}

// ListEntries retrieves all journal entries.
func (s *Service) ListEntries(ctx context.Context) ([]JournalEntry, error) {
	return s.repo.ListEntries(ctx)
}

// GetEntry retrieves one journal entry with its lines.
func (s *Service) GetEntry(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) record(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entity := "journal_entry"
	if strings.HasPrefix(action, "account.") {
		entity = "account"
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}

func toLines(entryID int64, inputs []LineInput) []JournalLine {
	lines := make([]JournalLine, 0, len(inputs))
	for i, in := range inputs {
		lines = append(lines, JournalLine{
			EntryID:     entryID,
			AccountID:   in.AccountID,
			Debit:       in.Debit,
			Credit:      in.Credit,
			Memo:        in.Memo,
			CheckNumber: in.CheckNumber,
			BankRef:     in.BankRef,
			LineNo:      i + 1,
		})
	}
	return lines
}

// IsNotFound reports whether the error is one of the ledger missing
// resource sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrAccountNotFound)
}

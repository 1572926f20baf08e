package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the Postgres-backed ledger repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, nature, postable, balance, parent_id, is_active, created_at, updated_at`
const entryColumns = `id, number, date, description, status, total_debit, total_credit, currency, exchange_rate, approved_by, approved_at, posted_by, posted_at, created_at, updated_at`
const lineColumns = `id, entry_id, account_id, debit, credit, memo, check_number, bank_ref, line_no, created_at, updated_at`

func (r *repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE is_active ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *repository) ListEntries(ctx context.Context) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) GetEntry(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := r.queryLines(ctx, r.db, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, outer: r}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// TrialBalanceRows aggregates posted activity per postable account.
func (r *repository) TrialBalanceRows(ctx context.Context) ([]TrialBalanceRow, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0), a.balance
FROM accounts a
LEFT JOIN (journal_lines l JOIN journal_entries e ON e.id = l.entry_id AND e.status = 'POSTED')
	ON l.account_id = a.id
WHERE a.is_active AND a.postable
GROUP BY a.id, a.code, a.name, a.type, a.balance
ORDER BY a.code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TrialBalanceRow
	for rows.Next() {
		var row TrialBalanceRow
		if err := rows.Scan(&row.AccountID, &row.Code, &row.Name, &row.Type, &row.TotalDebit, &row.TotalCredit, &row.Balance); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) queryLines(ctx context.Context, q querier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE entry_id=$1 ORDER BY line_no ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Memo, &line.CheckNumber, &line.BankRef, &line.LineNo, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx    pgx.Tx
	outer *repository
}

func (r *txRepository) InsertAccount(ctx context.Context, account Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (code, name, type, nature, postable, balance, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,0,$6,TRUE) RETURNING id, balance, created_at, updated_at`,
		account.Code, account.Name, account.Type, account.Nature, account.Postable, account.ParentID)
	if err := row.Scan(&account.ID, &account.Balance, &account.CreatedAt, &account.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_code" {
			return Account{}, ErrDuplicateCode
		}
		return Account{}, err
	}
	account.IsActive = true
	return account, nil
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (Account, error) {
	account, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND is_active`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	account, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND is_active FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *txRepository) UpdateAccountBalance(ctx context.Context, id int64, balance float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET balance=$2, updated_at=NOW() WHERE id=$1`, id, balance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE parent_id=$1 AND is_active`, id).Scan(&count)
	return count, err
}

func (r *txRepository) CountPostings(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_lines WHERE account_id=$1`, id).Scan(&count)
	return count, err
}

func (r *txRepository) DeactivateAccount(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) LastEntryNumber(ctx context.Context, year int) (string, error) {
	var number string
	err := r.tx.QueryRow(ctx, `SELECT number FROM journal_entries WHERE EXTRACT(YEAR FROM date)=$1 ORDER BY number DESC LIMIT 1 FOR UPDATE`, year).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return number, err
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (number, date, description, status, total_debit, total_credit, currency, exchange_rate)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`,
		entry.Number, entry.Date, entry.Description, entry.Status, entry.TotalDebit, entry.TotalCredit, entry.Currency, entry.ExchangeRate)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	if err := r.ReplaceLines(ctx, entry.ID, entry.Lines); err != nil {
		return JournalEntry{}, err
	}
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.ID
	}
	return entry, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := r.outer.queryLines(ctx, r.tx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, memo, check_number, bank_ref, line_no)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, entryID, line.AccountID, line.Debit, line.Credit, line.Memo, line.CheckNumber, line.BankRef, line.LineNo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) UpdateEntry(ctx context.Context, entry JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, total_debit=$3, total_credit=$4, approved_by=$5, approved_at=$6, posted_by=$7, posted_at=$8, updated_at=NOW() WHERE id=$1`,
		entry.ID, entry.Status, entry.TotalDebit, entry.TotalCredit, entry.ApprovedBy, entry.ApprovedAt, entry.PostedBy, entry.PostedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.Postable, &a.Balance, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanEntry(row rowScanner) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Status, &e.TotalDebit, &e.TotalCredit, &e.Currency, &e.ExchangeRate, &e.ApprovedBy, &e.ApprovedAt, &e.PostedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

package installments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the Postgres-backed installments repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const contractColumns = `id, reference, customer_name, total_amount, down_payment, annual_rate_pct, installments, financed_amount, monthly_amount, start_date, end_date, paid_amount, paid_count, status, created_at, updated_at`
const periodColumns = `id, contract_id, seq, due_date, amount, principal, interest, remaining_after, status, paid_at, created_at, updated_at`

func (r *repository) ListContracts(ctx context.Context) ([]Contract, error) {
	rows, err := r.db.Query(ctx, `SELECT `+contractColumns+` FROM installment_contracts ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var contracts []Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	return contracts, rows.Err()
}

func (r *repository) GetContract(ctx context.Context, id int64) (Contract, error) {
	contract, err := scanContract(r.db.QueryRow(ctx, `SELECT `+contractColumns+` FROM installment_contracts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, err
	}
	schedule, err := querySchedule(ctx, r.db, id)
	if err != nil {
		return Contract{}, err
	}
	contract.Schedule = schedule
	return contract, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertContract(ctx context.Context, contract Contract) (Contract, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO installment_contracts (reference, customer_name, total_amount, down_payment, annual_rate_pct, installments, financed_amount, monthly_amount, start_date, end_date, paid_amount, paid_count, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,0,$11) RETURNING id, created_at, updated_at`,
		contract.Reference, contract.CustomerName, contract.TotalAmount, contract.DownPayment, contract.AnnualRatePct,
		contract.Installments, contract.FinancedAmount, contract.MonthlyAmount, contract.StartDate, contract.EndDate, contract.Status)
	if err := row.Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt); err != nil {
		return Contract{}, err
	}
	return contract, nil
}

func (r *txRepository) GetContractForUpdate(ctx context.Context, id int64) (Contract, error) {
	contract, err := scanContract(r.tx.QueryRow(ctx, `SELECT `+contractColumns+` FROM installment_contracts WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, err
	}
	schedule, err := querySchedule(ctx, r.tx, id)
	if err != nil {
		return Contract{}, err
	}
	contract.Schedule = schedule
	return contract, nil
}

func (r *txRepository) UpdateContract(ctx context.Context, contract Contract) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE installment_contracts SET monthly_amount=$2, end_date=$3, paid_amount=$4, paid_count=$5, status=$6, updated_at=NOW() WHERE id=$1`,
		contract.ID, contract.MonthlyAmount, contract.EndDate, contract.PaidAmount, contract.PaidCount, contract.Status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrContractNotFound
	}
	return nil
}

func (r *txRepository) ReplaceSchedule(ctx context.Context, contractID int64, schedule []Period) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM installment_periods WHERE contract_id=$1`, contractID); err != nil {
		return err
	}
	for _, p := range schedule {
		if _, err := r.tx.Exec(ctx, `INSERT INTO installment_periods (contract_id, seq, due_date, amount, principal, interest, remaining_after, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, contractID, p.Seq, p.DueDate, p.Amount, p.Principal, p.Interest, p.RemainingAfter, p.Status); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) UpdatePeriod(ctx context.Context, period Period) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE installment_periods SET status=$3, paid_at=$4, updated_at=NOW() WHERE contract_id=$1 AND seq=$2`,
		period.ContractID, period.Seq, period.Status, period.PaidAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrContractNotFound
	}
	return nil
}

func (r *txRepository) MarkPeriodsOverdue(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `UPDATE installment_periods SET status='OVERDUE', updated_at=NOW()
WHERE status='PENDING' AND due_date < $1 RETURNING contract_id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepository) FlagContractsOverdue(ctx context.Context, contractIDs []int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE installment_contracts SET status='OVERDUE', updated_at=NOW()
WHERE id = ANY($1) AND status = 'ACTIVE'`, contractIDs)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func querySchedule(ctx context.Context, q querier, contractID int64) ([]Period, error) {
	rows, err := q.Query(ctx, `SELECT `+periodColumns+` FROM installment_periods WHERE contract_id=$1 ORDER BY seq ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var schedule []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Seq, &p.DueDate, &p.Amount, &p.Principal, &p.Interest, &p.RemainingAfter, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		schedule = append(schedule, p)
	}
	return schedule, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.Reference, &c.CustomerName, &c.TotalAmount, &c.DownPayment, &c.AnnualRatePct, &c.Installments,
		&c.FinancedAmount, &c.MonthlyAmount, &c.StartDate, &c.EndDate, &c.PaidAmount, &c.PaidCount, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

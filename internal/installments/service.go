package installments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daftar-erp/daftar/internal/shared"
)

// Repository abstracts transactional repository behaviour.
type Repository interface {
	ListContracts(ctx context.Context) ([]Contract, error)
	GetContract(ctx context.Context, id int64) (Contract, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within a transaction.
type TxRepository interface {
	InsertContract(ctx context.Context, contract Contract) (Contract, error)
	GetContractForUpdate(ctx context.Context, id int64) (Contract, error)
	UpdateContract(ctx context.Context, contract Contract) error
	ReplaceSchedule(ctx context.Context, contractID int64, schedule []Period) error
	UpdatePeriod(ctx context.Context, period Period) error
	MarkPeriodsOverdue(ctx context.Context, cutoff time.Time) ([]int64, error)
	FlagContractsOverdue(ctx context.Context, contractIDs []int64) error
}

// AuditPort records contract events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CreateContractInput groups fields required at contract signing.
type CreateContractInput struct {
	CustomerName  string
	TotalAmount   float64
	DownPayment   float64
	AnnualRatePct float64
	Installments  int
	StartDate     time.Time
	CreatedBy     string
}

// Service coordinates contract creation, schedule maintenance, and
// payment recording.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the installments service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateContract computes the financed amount and monthly installment,
// generates the schedule, and persists everything in one transaction.
func (s *Service) CreateContract(ctx context.Context, input CreateContractInput) (Contract, error) {
	if input.Installments <= 0 {
		return Contract{}, ErrNoInstallments
	}
	financed := input.TotalAmount - input.DownPayment
	if financed < 0 {
		return Contract{}, ErrNegativeFinanced
	}
	monthly := MonthlyInstallment(financed, input.AnnualRatePct, input.Installments)
	schedule := BuildSchedule(input.StartDate, financed, input.AnnualRatePct, input.Installments, monthly)
	contract := Contract{
		Reference:      uuid.New(),
		CustomerName:   input.CustomerName,
		TotalAmount:    input.TotalAmount,
		DownPayment:    input.DownPayment,
		AnnualRatePct:  input.AnnualRatePct,
		Installments:   input.Installments,
		FinancedAmount: financed,
		MonthlyAmount:  monthly,
		StartDate:      input.StartDate,
		EndDate:        schedule[len(schedule)-1].DueDate,
		Status:         ContractStatusActive,
	}
	var created Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertContract(ctx, contract)
		if err != nil {
			return err
		}
		if err := tx.ReplaceSchedule(ctx, inserted.ID, schedule); err != nil {
			return err
		}
		inserted.Schedule = schedule
		created = inserted
		return nil
	})
	if err != nil {
		return Contract{}, err
	}
	s.record(ctx, input.CreatedBy, "contract.create", created.ID, map[string]any{
		"reference": created.Reference.String(),
		"financed":  created.FinancedAmount,
		"monthly":   created.MonthlyAmount,
	})
	return created, nil
}

// RegenerateSchedule drops and rebuilds the schedule from the contract's
// stored terms. Destructive, and idempotent for identical terms.
func (s *Service) RegenerateSchedule(ctx context.Context, contractID int64, actor string) (Contract, error) {
	var updated Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := tx.GetContractForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		if contract.Status != ContractStatusActive && contract.Status != ContractStatusOverdue {
			return fmt.Errorf("%w: %s", ErrContractClosed, contract.Status)
		}
		if contract.Installments <= 0 {
			return ErrNoInstallments
		}
		contract.MonthlyAmount = MonthlyInstallment(contract.FinancedAmount, contract.AnnualRatePct, contract.Installments)
		schedule := BuildSchedule(contract.StartDate, contract.FinancedAmount, contract.AnnualRatePct, contract.Installments, contract.MonthlyAmount)
		contract.EndDate = schedule[len(schedule)-1].DueDate
		contract.PaidAmount = 0
		contract.PaidCount = 0
		if err := tx.ReplaceSchedule(ctx, contract.ID, schedule); err != nil {
			return err
		}
		if err := tx.UpdateContract(ctx, contract); err != nil {
			return err
		}
		contract.Schedule = schedule
		updated = contract
		return nil
	})
	if err != nil {
		return Contract{}, err
	}
	s.record(ctx, actor, "contract.regenerate", updated.ID, nil)
	return updated, nil
}

// RecordPayment marks the earliest unpaid period as paid and advances
// the contract's paid totals. PaidAmount accumulates the full installment
// amount (principal plus interest); it is not clamped against the
// financed amount.
func (s *Service) RecordPayment(ctx context.Context, contractID int64, actor string) (Contract, error) {
	var updated Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := tx.GetContractForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		if contract.Status != ContractStatusActive && contract.Status != ContractStatusOverdue {
			return fmt.Errorf("%w: %s", ErrContractClosed, contract.Status)
		}
		period, ok := nextPayable(contract.Schedule)
		if !ok {
			return ErrNothingDue
		}
		at := s.now()
		period.Status = PeriodStatusPaid
		period.PaidAt = &at
		if err := tx.UpdatePeriod(ctx, period); err != nil {
			return err
		}
		contract.PaidAmount += period.Amount
		contract.PaidCount++
		for i := range contract.Schedule {
			if contract.Schedule[i].Seq == period.Seq {
				contract.Schedule[i] = period
			}
		}
		if contract.PaidCount >= contract.Installments {
			contract.Status = ContractStatusCompleted
		} else if contract.Status == ContractStatusOverdue && !HasOverdue(contract.Schedule) {
			contract.Status = ContractStatusActive
		}
		if err := tx.UpdateContract(ctx, contract); err != nil {
			return err
		}
		updated = contract
		return nil
	})
	if err != nil {
		return Contract{}, err
	}
	s.record(ctx, actor, "contract.payment", updated.ID, map[string]any{
		"paid_count":  updated.PaidCount,
		"paid_amount": updated.PaidAmount,
	})
	return updated, nil
}

// MarkOverdue sweeps pending periods due before the cutoff into OVERDUE
// and flags their contracts. Returns the number of periods marked.
func (s *Service) MarkOverdue(ctx context.Context, cutoff time.Time) (int, error) {
	var marked int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contractIDs, err := tx.MarkPeriodsOverdue(ctx, cutoff)
		if err != nil {
			return err
		}
		marked = len(contractIDs)
		if marked == 0 {
			return nil
		}
		return tx.FlagContractsOverdue(ctx, dedupe(contractIDs))
	})
	return marked, err
}

// GetContract retrieves one contract with its schedule.
func (s *Service) GetContract(ctx context.Context, id int64) (Contract, error) {
	return s.repo.GetContract(ctx, id)
}

// ListContracts retrieves all contracts.
func (s *Service) ListContracts(ctx context.Context) ([]Contract, error) {
	return s.repo.ListContracts(ctx)
}

// nextPayable prefers overdue periods, then the earliest pending one.
func nextPayable(schedule []Period) (Period, bool) {
	var next Period
	found := false
	for _, p := range schedule {
		if p.Status == PeriodStatusPaid {
			continue
		}
		if !found || p.DueDate.Before(next.DueDate) {
			next = p
			found = true
		}
	}
	return next, found
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) record(ctx context.Context, actor, action string, contractID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "installment_contract",
		EntityID: fmt.Sprintf("%d", contractID),
		Meta:     meta,
		At:       s.now(),
	})
}

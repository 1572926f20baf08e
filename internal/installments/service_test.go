package installments

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daftar-erp/daftar/internal/shared"
)

type memoryContractRepo struct {
	contracts map[int64]*Contract
	schedules map[int64][]Period
	nextID    int64
}

func newMemoryContractRepo() *memoryContractRepo {
	return &memoryContractRepo{
		contracts: make(map[int64]*Contract),
		schedules: make(map[int64][]Period),
	}
}

func (r *memoryContractRepo) ListContracts(ctx context.Context) ([]Contract, error) {
	var out []Contract
	for _, c := range r.contracts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryContractRepo) GetContract(ctx context.Context, id int64) (Contract, error) {
	return r.GetContractForUpdate(ctx, id)
}

func (r *memoryContractRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryContractRepo) InsertContract(ctx context.Context, contract Contract) (Contract, error) {
	r.nextID++
	contract.ID = r.nextID
	stored := contract
	stored.Schedule = nil
	r.contracts[contract.ID] = &stored
	return contract, nil
}

func (r *memoryContractRepo) GetContractForUpdate(ctx context.Context, id int64) (Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, ErrContractNotFound
	}
	contract := *c
	contract.Schedule = append([]Period(nil), r.schedules[id]...)
	return contract, nil
}

func (r *memoryContractRepo) UpdateContract(ctx context.Context, contract Contract) error {
	c, ok := r.contracts[contract.ID]
	if !ok {
		return ErrContractNotFound
	}
	contract.Schedule = nil
	*c = contract
	return nil
}

func (r *memoryContractRepo) ReplaceSchedule(ctx context.Context, contractID int64, schedule []Period) error {
	stored := make([]Period, len(schedule))
	copy(stored, schedule)
	for i := range stored {
		stored[i].ContractID = contractID
		stored[i].ID = int64(i + 1)
	}
	r.schedules[contractID] = stored
	return nil
}

func (r *memoryContractRepo) UpdatePeriod(ctx context.Context, period Period) error {
	schedule, ok := r.schedules[period.ContractID]
	if !ok {
		return ErrContractNotFound
	}
	for i := range schedule {
		if schedule[i].Seq == period.Seq {
			schedule[i] = period
			return nil
		}
	}
	return ErrContractNotFound
}

func (r *memoryContractRepo) MarkPeriodsOverdue(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	for contractID, schedule := range r.schedules {
		for i := range schedule {
			if schedule[i].Status == PeriodStatusPending && schedule[i].DueDate.Before(cutoff) {
				schedule[i].Status = PeriodStatusOverdue
				ids = append(ids, contractID)
			}
		}
	}
	return ids, nil
}

func (r *memoryContractRepo) FlagContractsOverdue(ctx context.Context, contractIDs []int64) error {
	for _, id := range contractIDs {
		if c, ok := r.contracts[id]; ok && c.Status == ContractStatusActive {
			c.Status = ContractStatusOverdue
		}
	}
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newContractFixture(t *testing.T) (*Service, *memoryContractRepo) {
	t.Helper()
	repo := newMemoryContractRepo()
	svc := NewService(repo, &recordingAudit{})
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) })
	return svc, repo
}

func demoInput() CreateContractInput {
	return CreateContractInput{
		CustomerName:  "Al Noor Trading",
		TotalAmount:   10000,
		DownPayment:   2000,
		AnnualRatePct: 12,
		Installments:  12,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:     "maha",
	}
}

func TestCreateContract(t *testing.T) {
	svc, _ := newContractFixture(t)

	contract, err := svc.CreateContract(context.Background(), demoInput())
	require.NoError(t, err)
	require.Equal(t, 8000.0, contract.FinancedAmount)
	require.InDelta(t, 710.05, contract.MonthlyAmount, 0.01)
	require.Equal(t, ContractStatusActive, contract.Status)
	require.Len(t, contract.Schedule, 12)
	require.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), contract.EndDate)
	require.InDelta(t, 0, contract.Schedule[11].RemainingAfter, 0.01)
	require.NotEqual(t, contract.Reference.String(), "00000000-0000-0000-0000-000000000000")
}

func TestCreateContractRejectsDegenerateTerms(t *testing.T) {
	svc, _ := newContractFixture(t)

	input := demoInput()
	input.Installments = 0
	_, err := svc.CreateContract(context.Background(), input)
	require.ErrorIs(t, err, ErrNoInstallments)

	input = demoInput()
	input.DownPayment = 12000
	_, err = svc.CreateContract(context.Background(), input)
	require.ErrorIs(t, err, ErrNegativeFinanced)
}

func TestRecordPaymentProgressesContract(t *testing.T) {
	svc, repo := newContractFixture(t)
	contract, err := svc.CreateContract(context.Background(), demoInput())
	require.NoError(t, err)

	paid, err := svc.RecordPayment(context.Background(), contract.ID, "omar")
	require.NoError(t, err)
	require.Equal(t, 1, paid.PaidCount)
	require.InDelta(t, contract.MonthlyAmount, paid.PaidAmount, 1e-9)
	require.Equal(t, PeriodStatusPaid, repo.schedules[contract.ID][0].Status)
	require.NotNil(t, repo.schedules[contract.ID][0].PaidAt)

	for i := 1; i < 12; i++ {
		paid, err = svc.RecordPayment(context.Background(), contract.ID, "omar")
		require.NoError(t, err)
	}
	require.Equal(t, ContractStatusCompleted, paid.Status)
	require.Equal(t, 12, paid.PaidCount)

	_, err = svc.RecordPayment(context.Background(), contract.ID, "omar")
	require.ErrorIs(t, err, ErrContractClosed)
}

func TestMarkOverdue(t *testing.T) {
	svc, repo := newContractFixture(t)
	contract, err := svc.CreateContract(context.Background(), demoInput())
	require.NoError(t, err)

	marked, err := svc.MarkOverdue(context.Background(), time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 3, marked) // Jan, Feb, Mar due dates are past
	require.Equal(t, ContractStatusOverdue, repo.contracts[contract.ID].Status)

	stored, err := svc.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	require.True(t, HasOverdue(stored.Schedule))
	require.Len(t, Overdue(stored.Schedule), 3)
	require.InDelta(t, 3*contract.MonthlyAmount, TotalOverdue(stored.Schedule), 1e-6)

	// paying down the overdue periods reactivates the contract
	for i := 0; i < 3; i++ {
		_, err = svc.RecordPayment(context.Background(), contract.ID, "omar")
		require.NoError(t, err)
	}
	require.Equal(t, ContractStatusActive, repo.contracts[contract.ID].Status)
}

func TestRegenerateScheduleIsDestructive(t *testing.T) {
	svc, repo := newContractFixture(t)
	contract, err := svc.CreateContract(context.Background(), demoInput())
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), contract.ID, "omar")
	require.NoError(t, err)

	regenerated, err := svc.RegenerateSchedule(context.Background(), contract.ID, "maha")
	require.NoError(t, err)
	require.Equal(t, 0, regenerated.PaidCount)
	require.Equal(t, 0.0, regenerated.PaidAmount)
	require.Len(t, regenerated.Schedule, 12)
	for _, p := range repo.schedules[contract.ID] {
		require.Equal(t, PeriodStatusPending, p.Status)
	}

	// identical terms produce an identical schedule
	again, err := svc.RegenerateSchedule(context.Background(), contract.ID, "maha")
	require.NoError(t, err)
	require.Equal(t, regenerated.Schedule[5].Principal, again.Schedule[5].Principal)
	require.Equal(t, regenerated.Schedule[5].DueDate, again.Schedule[5].DueDate)
}

func TestRecordPaymentUnknownContract(t *testing.T) {
	svc, _ := newContractFixture(t)
	_, err := svc.RecordPayment(context.Background(), 99, "omar")
	require.ErrorIs(t, err, ErrContractNotFound)
}

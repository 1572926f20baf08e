package installments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ContractStatus enumerates installment contract states.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusCompleted ContractStatus = "COMPLETED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
	ContractStatusOverdue   ContractStatus = "OVERDUE"
	ContractStatusSuspended ContractStatus = "SUSPENDED"
)

// PeriodStatus enumerates schedule period states.
type PeriodStatus string

const (
	PeriodStatusPending PeriodStatus = "PENDING"
	PeriodStatusPaid    PeriodStatus = "PAID"
	PeriodStatusOverdue PeriodStatus = "OVERDUE"
)

// Contract is a financed sale with a fixed repayment schedule.
type Contract struct {
	ID             int64
	Reference      uuid.UUID
	CustomerName   string
	TotalAmount    float64
	DownPayment    float64
	AnnualRatePct  float64
	Installments   int
	FinancedAmount float64
	MonthlyAmount  float64
	StartDate      time.Time
	EndDate        time.Time
	PaidAmount     float64
	PaidCount      int
	Status         ContractStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Schedule       []Period
}

// Period is one scheduled installment.
type Period struct {
	ID             int64
	ContractID     int64
	Seq            int
	DueDate        time.Time
	Amount         float64
	Principal      float64
	Interest       float64
	RemainingAfter float64
	Status         PeriodStatus
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var (
	// ErrContractNotFound indicates a missing contract.
	ErrContractNotFound = errors.New("installments: contract not found")
	// ErrNoInstallments indicates a contract without a positive period count.
	ErrNoInstallments = errors.New("installments: contract requires at least one installment")
	// ErrNegativeFinanced indicates down payment exceeding the total.
	ErrNegativeFinanced = errors.New("installments: down payment exceeds total amount")
	// ErrNothingDue indicates a payment against a fully paid schedule.
	ErrNothingDue = errors.New("installments: no pending installment")
	// ErrContractClosed indicates an operation on a terminal contract.
	ErrContractClosed = errors.New("installments: contract is not active")
)

// RemainingAmount is the financed amount minus installment payments
// received so far. Interest collected on top of principal can drive it
// below zero; no guard enforces a floor.
func (c *Contract) RemainingAmount() float64 {
	return c.FinancedAmount - c.PaidAmount
}

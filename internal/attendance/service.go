package attendance

import (
	"context"
	"errors"
	"time"
)

// Repository abstracts attendance persistence.
type Repository interface {
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	OpenRecord(ctx context.Context, employeeID int64, day time.Time) (Record, error)
	InsertRecord(ctx context.Context, record Record) (Record, error)
	CloseRecord(ctx context.Context, recordID int64, at time.Time) (Record, error)
	ListRecords(ctx context.Context, employeeID int64, from, to time.Time) ([]Record, error)
}

// Service handles employee check-in and check-out.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the attendance service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CheckIn opens today's attendance record for the employee. The method
// tag records how the caller verified identity; verification itself
// happens outside this service.
func (s *Service) CheckIn(ctx context.Context, employeeID int64, method string) (Record, error) {
	employee, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return Record{}, err
	}
	at := s.now()
	day := truncateDay(at)
	if _, err := s.repo.OpenRecord(ctx, employee.ID, day); err == nil {
		return Record{}, ErrAlreadyCheckedIn
	} else if !errors.Is(err, ErrNotCheckedIn) {
		return Record{}, err
	}
	record := Record{
		EmployeeID: employee.ID,
		Day:        day,
		CheckInAt:  at,
		Method:     method,
		Status:     RecordStatusOpen,
	}
	return s.repo.InsertRecord(ctx, record)
}

// CheckOut closes today's open record for the employee.
func (s *Service) CheckOut(ctx context.Context, employeeID int64) (Record, error) {
	employee, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return Record{}, err
	}
	at := s.now()
	open, err := s.repo.OpenRecord(ctx, employee.ID, truncateDay(at))
	if err != nil {
		return Record{}, err
	}
	return s.repo.CloseRecord(ctx, open.ID, at)
}

// History lists an employee's records in [from, to].
func (s *Service) History(ctx context.Context, employeeID int64, from, to time.Time) ([]Record, error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	return s.repo.ListRecords(ctx, employeeID, from, to)
}

// ListEmployees returns active employees.
func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

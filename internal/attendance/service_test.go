package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryAttendanceRepo struct {
	employees map[int64]Employee
	records   map[int64]*Record
	nextID    int64
}

func newMemoryAttendanceRepo() *memoryAttendanceRepo {
	return &memoryAttendanceRepo{
		employees: make(map[int64]Employee),
		records:   make(map[int64]*Record),
	}
}

func (r *memoryAttendanceRepo) addEmployee(code, name string) int64 {
	id := int64(len(r.employees) + 1)
	r.employees[id] = Employee{ID: id, Code: code, Name: name, IsActive: true}
	return id
}

func (r *memoryAttendanceRepo) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, ok := r.employees[id]
	if !ok || !e.IsActive {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (r *memoryAttendanceRepo) ListEmployees(ctx context.Context) ([]Employee, error) {
	var out []Employee
	for _, e := range r.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryAttendanceRepo) OpenRecord(ctx context.Context, employeeID int64, day time.Time) (Record, error) {
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && rec.Day.Equal(day) && rec.Status == RecordStatusOpen {
			return *rec, nil
		}
	}
	return Record{}, ErrNotCheckedIn
}

func (r *memoryAttendanceRepo) InsertRecord(ctx context.Context, record Record) (Record, error) {
	r.nextID++
	record.ID = r.nextID
	stored := record
	r.records[record.ID] = &stored
	return record, nil
}

func (r *memoryAttendanceRepo) CloseRecord(ctx context.Context, recordID int64, at time.Time) (Record, error) {
	rec, ok := r.records[recordID]
	if !ok {
		return Record{}, ErrNotCheckedIn
	}
	rec.CheckOutAt = &at
	rec.Status = RecordStatusClosed
	return *rec, nil
}

func (r *memoryAttendanceRepo) ListRecords(ctx context.Context, employeeID int64, from, to time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && !rec.Day.Before(from) && !rec.Day.After(to) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func newAttendanceFixture(t *testing.T) (*Service, *memoryAttendanceRepo, *time.Time) {
	t.Helper()
	repo := newMemoryAttendanceRepo()
	svc := NewService(repo)
	now := time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC)
	clock := &now
	svc.WithNow(func() time.Time { return *clock })
	return svc, repo, clock
}

func TestCheckInAndOut(t *testing.T) {
	svc, repo, clock := newAttendanceFixture(t)
	id := repo.addEmployee("E001", "Sara")

	record, err := svc.CheckIn(context.Background(), id, "badge")
	require.NoError(t, err)
	require.Equal(t, RecordStatusOpen, record.Status)
	require.Equal(t, "badge", record.Method)
	require.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), record.Day)

	_, err = svc.CheckIn(context.Background(), id, "badge")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	*clock = clock.Add(9 * time.Hour)
	closed, err := svc.CheckOut(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, RecordStatusClosed, closed.Status)
	require.NotNil(t, closed.CheckOutAt)
	require.Equal(t, 9*time.Hour, closed.CheckOutAt.Sub(closed.CheckInAt))
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	id := repo.addEmployee("E001", "Sara")

	_, err := svc.CheckOut(context.Background(), id)
	require.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestUnknownEmployee(t *testing.T) {
	svc, _, _ := newAttendanceFixture(t)

	_, err := svc.CheckIn(context.Background(), 42, "badge")
	require.ErrorIs(t, err, ErrEmployeeNotFound)
	_, err = svc.CheckOut(context.Background(), 42)
	require.ErrorIs(t, err, ErrEmployeeNotFound)
	_, err = svc.History(context.Background(), 42, time.Time{}, time.Time{})
	require.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestHistoryDefaultsToLastMonth(t *testing.T) {
	svc, repo, clock := newAttendanceFixture(t)
	id := repo.addEmployee("E001", "Sara")

	_, err := svc.CheckIn(context.Background(), id, "badge")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), id)
	require.NoError(t, err)

	// a record from two months ago falls outside the default window
	old := Record{
		EmployeeID: id,
		Day:        clock.AddDate(0, -2, 0),
		CheckInAt:  clock.AddDate(0, -2, 0),
		Status:     RecordStatusClosed,
	}
	_, err = repo.InsertRecord(context.Background(), old)
	require.NoError(t, err)

	records, err := svc.History(context.Background(), id, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
}

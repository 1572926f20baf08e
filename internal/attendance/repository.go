package attendance

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

// NewRepository returns the Postgres-backed attendance repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const employeeColumns = `id, code, name, email, is_active, created_at, updated_at`
const recordColumns = `id, employee_id, day, check_in_at, check_out_at, method, status, created_at, updated_at`

func (r *repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1 AND is_active`, id).
		Scan(&e.ID, &e.Code, &e.Name, &e.Email, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.Query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE is_active ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Email, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *repository) OpenRecord(ctx context.Context, employeeID int64, day time.Time) (Record, error) {
	record, err := scanRecord(r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM attendance_records
WHERE employee_id=$1 AND day=$2 AND status='OPEN'`, employeeID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotCheckedIn
		}
		return Record{}, err
	}
	return record, nil
}

func (r *repository) InsertRecord(ctx context.Context, record Record) (Record, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO attendance_records (employee_id, day, check_in_at, method, status)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`,
		record.EmployeeID, record.Day, record.CheckInAt, record.Method, record.Status)
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (r *repository) CloseRecord(ctx context.Context, recordID int64, at time.Time) (Record, error) {
	record, err := scanRecord(r.db.QueryRow(ctx, `UPDATE attendance_records SET check_out_at=$2, status='CLOSED', updated_at=NOW()
WHERE id=$1 RETURNING `+recordColumns, recordID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotCheckedIn
		}
		return Record{}, err
	}
	return record, nil
}

func (r *repository) ListRecords(ctx context.Context, employeeID int64, from, to time.Time) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+recordColumns+` FROM attendance_records
WHERE employee_id=$1 AND day BETWEEN $2 AND $3 ORDER BY day DESC`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &rec.CheckInAt, &rec.CheckOutAt, &rec.Method, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

package attendance

import (
	"errors"
	"time"
)

// RecordStatus enumerates attendance record states.
type RecordStatus string

const (
	RecordStatusOpen   RecordStatus = "OPEN"
	RecordStatusClosed RecordStatus = "CLOSED"
)

// Employee is a member of staff tracked by the attendance system.
type Employee struct {
	ID        int64
	Code      string
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record is one working day's check-in/check-out pair.
type Record struct {
	ID         int64
	EmployeeID int64
	Day        time.Time
	CheckInAt  time.Time
	CheckOutAt *time.Time
	Method     string
	Status     RecordStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	// ErrEmployeeNotFound indicates a missing or inactive employee.
	ErrEmployeeNotFound = errors.New("attendance: employee not found")
	// ErrAlreadyCheckedIn indicates an open record already exists today.
	ErrAlreadyCheckedIn = errors.New("attendance: already checked in")
	// ErrNotCheckedIn indicates a check-out without an open record.
	ErrNotCheckedIn = errors.New("attendance: no open check-in")
)

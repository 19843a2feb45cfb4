package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmployeeAction records why the account entry was issued.
type EmployeeAction string

const (
	EmployeeActionCreate EmployeeAction = "create"
	EmployeeActionBlock  EmployeeAction = "block"
)

// EmployeeStatus represents whether the employee account is usable
type EmployeeStatus string

const (
	EmployeeStatusActive  EmployeeStatus = "active"
	EmployeeStatusBlocked EmployeeStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusBlocked
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. It travels as
// "YYYY-MM-DD" in JSON and as DATE in PostgreSQL.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		parsed, err := ParseDate(v[:min(len(v), len(dateLayout))])
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

// Employee is a personnel record with its issued system credentials.
type Employee struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	LastName     string         `db:"last_name" json:"last_name"`
	FirstName    string         `db:"first_name" json:"first_name"`
	Patronymic   string         `db:"patronymic" json:"patronymic"`
	RegionNameID uuid.UUID      `db:"region_name_id" json:"region_name_id"`
	RegionCodeID uuid.UUID      `db:"region_code_id" json:"region_code_id"`
	NoteDate     *Date          `db:"note_date" json:"note_date"`
	NoteNumber   string         `db:"note_number" json:"note_number"`
	Login        string         `db:"login" json:"login"`
	Password     string         `db:"password" json:"password"` // stored in cleartext by requirement
	Action       EmployeeAction `db:"action" json:"action"`
	Status       EmployeeStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`

	// Populated by joined reads
	RegionName *Region `db:"region_name" json:"region_name,omitempty"`
	RegionCode *Region `db:"region_code" json:"region_code,omitempty"`
}

// FullName joins the name parts, skipping an empty patronymic.
func (e *Employee) FullName() string {
	name := e.LastName + " " + e.FirstName
	if e.Patronymic != "" {
		name += " " + e.Patronymic
	}
	return name
}

// Snapshot is the textual form kept in the action log, so entries stay
// readable after the employee is gone.
func (e *Employee) Snapshot() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", e.FullName(), e.Login)
}

// EmployeeRequest is used for employee creation/update
type EmployeeRequest struct {
	LastName     string         `json:"last_name" validate:"required,max=100,personname"`
	FirstName    string         `json:"first_name" validate:"required,max=100,personname"`
	Patronymic   string         `json:"patronymic" validate:"omitempty,max=100,personname"`
	RegionNameID uuid.UUID      `json:"region_name_id" validate:"required"`
	RegionCodeID *uuid.UUID     `json:"region_code_id"`
	NoteDate     *Date          `json:"note_date"`
	NoteNumber   string         `json:"note_number" validate:"required,max=50"`
	Status       EmployeeStatus `json:"status" validate:"omitempty,oneof=active blocked"`

	// Update only: explicit credential overrides
	Login    *string `json:"login,omitempty" validate:"omitempty,min=1,max=150"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=1,max=128"`
}

// EmployeeStatusRequest toggles an employee between active and blocked.
type EmployeeStatusRequest struct {
	Status EmployeeStatus `json:"status" validate:"required,oneof=active blocked"`
}

// BulkDeleteRequest lists the employees to remove in one operation.
type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// EmployeeFilter narrows employee searches and exports. Empty fields are ignored.
type EmployeeFilter struct {
	Query      string
	LastName   string
	FirstName  string
	Patronymic string
	RegionID   *uuid.UUID
	NoteDate   *Date
	NoteNumber string
	Status     EmployeeStatus
	CreatedOn  *Date
	Ordering   string
	Limit      uint64
	Offset     uint64
}

// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is fast enough for most projects and trivial to set up.
//
// SCHEMA NOTES
// ────────────
// The record's two emergency-contact sub-objects are flattened into
// ec1_*/ec2_* column pairs; a slot whose columns are both empty reads
// back as absent. UNIQUE indexes on username and email are the
// write-time backstop for the service layer's uniqueness pre-check:
// two concurrent creates can both pass the pre-check, but only one
// insert survives, and the loser's constraint violation is mapped to
// the same *storage.ConflictError the pre-check would have produced.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nikhil-saxena/student-records-api/internal/config"
	"github.com/nikhil-saxena/student-records-api/internal/storage"
	"github.com/nikhil-saxena/student-records-api/internal/types"

	// Importing the driver registers it with database/sql; the named
	// import is also needed to unwrap sqlite3.Error for the
	// unique-constraint mapping below.
	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// columns is the full column list, in the order every SELECT and Scan
// in this file relies on. Never use SELECT * — adding a column later
// would silently break Scan's ordering.
const columns = `id, full_name, username, email, date_of_birth, age, gender, phone,
	alternate_phone, height, weight, permanent_address, current_address,
	city, state, zip_code, country, course_program, department,
	father_name, mother_name, guardian_name, guardian_contact,
	ec1_name, ec1_phone, ec2_name, ec2_phone, created_at, updated_at`

// New opens the SQLite database at the path specified in
// cfg.StoragePath, creates the students table if it does not already
// exist, and returns a ready-to-use *SQLite. A connectivity failure
// here is fatal to startup — the caller exits rather than serving
// requests against a dead store.
func New(cfg *config.Config) (*SQLite, error) {
	// sql.Open does NOT open a real connection yet — it just validates
	// the driver name and data source name (DSN).
	// The first actual connection happens on the first query.
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Fail fast at boot if the file is unreachable or corrupt.
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	// Idempotent DDL — safe to run on every startup. The UNIQUE
	// constraints carry the uniqueness invariant at the engine level.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id                TEXT PRIMARY KEY,
			full_name         TEXT NOT NULL,
			username          TEXT NOT NULL UNIQUE,
			email             TEXT NOT NULL UNIQUE,
			date_of_birth     TEXT NOT NULL,
			age               INTEGER NOT NULL,
			gender            TEXT NOT NULL DEFAULT '',
			phone             TEXT NOT NULL,
			alternate_phone   TEXT NOT NULL DEFAULT '',
			height            TEXT NOT NULL DEFAULT '',
			weight            TEXT NOT NULL DEFAULT '',
			permanent_address TEXT NOT NULL DEFAULT '',
			current_address   TEXT NOT NULL DEFAULT '',
			city              TEXT NOT NULL DEFAULT '',
			state             TEXT NOT NULL DEFAULT '',
			zip_code          TEXT NOT NULL DEFAULT '',
			country           TEXT NOT NULL DEFAULT '',
			course_program    TEXT NOT NULL DEFAULT '',
			department        TEXT NOT NULL DEFAULT '',
			father_name       TEXT NOT NULL DEFAULT '',
			mother_name       TEXT NOT NULL DEFAULT '',
			guardian_name     TEXT NOT NULL DEFAULT '',
			guardian_contact  TEXT NOT NULL DEFAULT '',
			ec1_name          TEXT NOT NULL DEFAULT '',
			ec1_phone         TEXT NOT NULL DEFAULT '',
			ec2_name          TEXT NOT NULL DEFAULT '',
			ec2_phone         TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMP NOT NULL,
			updated_at        TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateStudent inserts a new row. The caller has already assigned the
// ID and timestamps; this is a single statement, so the record is
// either fully persisted or not at all.
func (s *SQLite) CreateStudent(ctx context.Context, st types.Student) error {
	stmt, err := s.Db.PrepareContext(ctx, `
		INSERT INTO students (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, insertArgs(st)...)
	if err != nil {
		if conflict := asConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("CreateStudent: exec: %w", err)
	}
	return nil
}

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	row := s.Db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM students WHERE id = ? LIMIT 1`, id)
	return scanStudent(row)
}

// GetStudentByUsername fetches the row holding the given username.
func (s *SQLite) GetStudentByUsername(ctx context.Context, username string) (types.Student, error) {
	row := s.Db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM students WHERE username = ? LIMIT 1`, username)
	return scanStudent(row)
}

// GetStudentByEmail fetches the row holding the given email.
func (s *SQLite) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	row := s.Db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM students WHERE email = ? LIMIT 1`, email)
	return scanStudent(row)
}

// GetStudents returns all rows in insertion order. SQLite's implicit
// rowid increases monotonically for appends, which is exactly the
// "order as stored" the API promises.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		`SELECT `+columns+` FROM students ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close() // must close rows to free the DB connection

	// Pre-allocate an empty (non-nil) slice.
	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, st)
	}

	// rows.Err() captures any error that occurred during iteration.
	// This is separate from Scan errors.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudent replaces every mutable column of the row matched by
// st.ID in one statement. Zero affected rows means the record
// disappeared between the service's fetch and this write.
func (s *SQLite) UpdateStudent(ctx context.Context, st types.Student) error {
	stmt, err := s.Db.PrepareContext(ctx, `
		UPDATE students SET
			full_name = ?, username = ?, email = ?, date_of_birth = ?,
			age = ?, gender = ?, phone = ?, alternate_phone = ?,
			height = ?, weight = ?, permanent_address = ?, current_address = ?,
			city = ?, state = ?, zip_code = ?, country = ?,
			course_program = ?, department = ?,
			father_name = ?, mother_name = ?, guardian_name = ?, guardian_contact = ?,
			ec1_name = ?, ec1_phone = ?, ec2_name = ?, ec2_phone = ?,
			updated_at = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("UpdateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	ec1Name, ec1Phone := contactColumns(st.EmergencyContact1)
	ec2Name, ec2Phone := contactColumns(st.EmergencyContact2)

	result, err := stmt.ExecContext(ctx,
		st.FullName, st.Username, st.Email, st.DateOfBirth.String(),
		st.Age, st.Gender, st.Phone, st.AlternatePhone,
		st.Height, st.Weight, st.PermanentAddress, st.CurrentAddress,
		st.City, st.State, st.ZipCode, st.Country,
		st.CourseProgram, st.Department,
		st.FatherName, st.MotherName, st.GuardianName, st.GuardianContact,
		ec1Name, ec1Phone, ec2Name, ec2Phone,
		st.UpdatedAt,
		st.ID,
	)
	if err != nil {
		if conflict := asConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("UpdateStudent: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStudent: rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrStudentNotFound
	}
	return nil
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) error {
	result, err := s.Db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrStudentNotFound
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanStudent reads one row into a Student, in the order of `columns`.
func scanStudent(row scanner) (types.Student, error) {
	var (
		st                types.Student
		dob               string
		ec1Name, ec1Phone string
		ec2Name, ec2Phone string
	)

	err := row.Scan(
		&st.ID, &st.FullName, &st.Username, &st.Email, &dob, &st.Age,
		&st.Gender, &st.Phone, &st.AlternatePhone, &st.Height, &st.Weight,
		&st.PermanentAddress, &st.CurrentAddress, &st.City, &st.State,
		&st.ZipCode, &st.Country, &st.CourseProgram, &st.Department,
		&st.FatherName, &st.MotherName, &st.GuardianName, &st.GuardianContact,
		&ec1Name, &ec1Phone, &ec2Name, &ec2Phone,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrStudentNotFound
		}
		return types.Student{}, fmt.Errorf("scan student: %w", err)
	}

	st.DateOfBirth, err = types.ParseDate(dob)
	if err != nil {
		return types.Student{}, fmt.Errorf("scan student: date_of_birth: %w", err)
	}
	st.EmergencyContact1 = contactFromColumns(ec1Name, ec1Phone)
	st.EmergencyContact2 = contactFromColumns(ec2Name, ec2Phone)
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()

	return st, nil
}

func insertArgs(st types.Student) []any {
	ec1Name, ec1Phone := contactColumns(st.EmergencyContact1)
	ec2Name, ec2Phone := contactColumns(st.EmergencyContact2)
	return []any{
		st.ID, st.FullName, st.Username, st.Email, st.DateOfBirth.String(),
		st.Age, st.Gender, st.Phone, st.AlternatePhone, st.Height, st.Weight,
		st.PermanentAddress, st.CurrentAddress, st.City, st.State,
		st.ZipCode, st.Country, st.CourseProgram, st.Department,
		st.FatherName, st.MotherName, st.GuardianName, st.GuardianContact,
		ec1Name, ec1Phone, ec2Name, ec2Phone,
		st.CreatedAt, st.UpdatedAt,
	}
}

// contactColumns flattens an optional sub-object into its column pair.
func contactColumns(c *types.EmergencyContact) (name, phone string) {
	if c == nil {
		return "", ""
	}
	return c.Name, c.Phone
}

// contactFromColumns rebuilds the sub-object; both columns empty means
// the slot was never set.
func contactFromColumns(name, phone string) *types.EmergencyContact {
	if name == "" && phone == "" {
		return nil
	}
	return &types.EmergencyContact{Name: name, Phone: phone}
}

// asConflict maps a sqlite unique-constraint violation onto the
// storage error taxonomy, identifying which column collided from the
// driver's message ("UNIQUE constraint failed: students.username").
// Returns nil for any other error.
func asConflict(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}
	field := "username"
	if strings.Contains(sqliteErr.Error(), "students.email") {
		field = "email"
	}
	return &storage.ConflictError{Field: field}
}

// interface guard — a compile error here means SQLite drifted from the
// storage contract.
var _ storage.Storage = (*SQLite)(nil)

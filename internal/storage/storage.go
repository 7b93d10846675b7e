// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// The service layer (validation, uniqueness, merging) should not know
// or care which database it is talking to. By depending only on this
// interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero service changes.
//
//   - Writing tests = pass a fake/mock that satisfies the interface.
//     No real database needed for unit tests.
//
// This is the Dependency Inversion Principle in practice.
//
// The package also owns the storage-level error taxonomy. Sentinel and
// typed errors defined here are what implementations return and what
// the service layer matches with errors.Is / errors.As — so neither
// side ever imports a driver package to classify a failure.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikhil-saxena/student-records-api/internal/types"
)

// ErrStudentNotFound is returned when an identifier does not resolve
// to an existing record. Get, update, and delete all use it, and the
// service maps malformed identifiers onto it too — a bad ID is
// indistinguishable from an absent one at the API boundary.
var ErrStudentNotFound = errors.New("student not found")

// ConflictError reports a username or email uniqueness violation.
// Field names the colliding attribute ("username" or "email"). Both
// the service's pre-check and the engine's unique-constraint backstop
// produce this same type, so callers handle one shape.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// Storage is the database contract.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface — Go does this implicitly (no "implements"
// keyword required).
//
// Every method takes a context so a caller's request deadline bounds
// the underlying I/O wait.
type Storage interface {
	// CreateStudent inserts a fully populated record (ID and
	// timestamps already assigned by the caller). A username/email
	// unique-constraint violation comes back as *ConflictError.
	CreateStudent(ctx context.Context, s types.Student) error

	// GetStudentByID fetches one record by its identifier.
	// Returns ErrStudentNotFound if no record matches.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// GetStudents returns every record in insertion order.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByUsername fetches the record holding the given
	// username, for uniqueness pre-checks.
	// Returns ErrStudentNotFound when the username is free.
	GetStudentByUsername(ctx context.Context, username string) (types.Student, error)

	// GetStudentByEmail fetches the record holding the given email
	// (callers pass it lowercased).
	// Returns ErrStudentNotFound when the email is free.
	GetStudentByEmail(ctx context.Context, email string) (types.Student, error)

	// UpdateStudent replaces the stored record with s (matched by
	// s.ID) in a single statement — there is no partial persistence.
	// Returns ErrStudentNotFound if the record vanished, or
	// *ConflictError on a unique-constraint violation.
	UpdateStudent(ctx context.Context, s types.Student) error

	// DeleteStudentByID removes a record permanently.
	// Returns ErrStudentNotFound if no record matches.
	DeleteStudentByID(ctx context.Context, id string) error
}

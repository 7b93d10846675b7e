package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/nikhil-saxena/student-records-api/internal/storage"
	"github.com/nikhil-saxena/student-records-api/internal/types"
)

// The in-memory store must mirror the SQLite backstop: inserting a
// colliding username or email fails with the same ConflictError the
// UNIQUE indexes would raise, username checked first.
func TestCreateBackstopMatchesSQLiteSemantics(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := types.Student{ID: "id-1", Username: "asha.rao", Email: "asha@example.com"}
	if err := store.CreateStudent(ctx, first); err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}

	dup := types.Student{ID: "id-2", Username: "asha.rao", Email: "asha@example.com"}
	err := store.CreateStudent(ctx, dup)
	var conflict *storage.ConflictError
	if !errors.As(err, &conflict) || conflict.Field != "username" {
		t.Fatalf("want username conflict, got %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}

	dup.Username = "other.name"
	err = store.CreateStudent(ctx, dup)
	if !errors.As(err, &conflict) || conflict.Field != "email" {
		t.Fatalf("want email conflict, got %v", err)
	}
}

func TestUpdateExemptsOwnRow(t *testing.T) {
	store := New()
	ctx := context.Background()

	s := types.Student{ID: "id-1", Username: "asha.rao", Email: "asha@example.com"}
	if err := store.CreateStudent(ctx, s); err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}

	// Re-writing the row with its own username/email is not a conflict.
	s.City = "Pune"
	if err := store.UpdateStudent(ctx, s); err != nil {
		t.Fatalf("UpdateStudent failed: %v", err)
	}

	got, err := store.GetStudentByID(ctx, "id-1")
	if err != nil || got.City != "Pune" {
		t.Errorf("GetStudentByID = (%+v, %v), want updated row", got, err)
	}
}

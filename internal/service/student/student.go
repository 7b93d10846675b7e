// Package student implements the record pipeline that sits between the
// HTTP handlers and storage: validation, uniqueness checking, partial-
// update merging, and age derivation. It depends only on the storage
// interface, so every rule here is testable against an in-memory fake.
//
// Control flow per operation:
//
//	create: validate → uniqueness pre-check → build record → persist
//	update: validate change set → fetch existing → uniqueness on
//	        changed fields → merge → derive age → re-validate → persist
//
// The uniqueness pre-check and the subsequent write are not atomic —
// two concurrent creates with the same username can both pass the
// check. The storage engine's unique constraint is the backstop, and
// its violation surfaces as the same *storage.ConflictError, so
// callers cannot tell which layer caught it.
package student

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nikhil-saxena/student-records-api/internal/storage"
	"github.com/nikhil-saxena/student-records-api/internal/types"
	"github.com/nikhil-saxena/student-records-api/internal/validation"
)

// Service owns the record pipeline. The clock is a field so tests can
// pin "now" and exercise the age-derivation boundaries.
type Service struct {
	storage storage.Storage
	now     func() time.Time
}

// New returns a Service using the real clock.
func New(st storage.Storage) *Service {
	return NewWithClock(st, time.Now)
}

// NewWithClock returns a Service with an injected clock.
func NewWithClock(st storage.Storage, now func() time.Time) *Service {
	return &Service{storage: st, now: now}
}

// AgeAt computes age in whole completed years at the given instant,
// calendar-aware: the year difference is decremented by one when the
// birthday has not yet occurred in `at`'s year. On the anniversary day
// itself the year counts as completed.
func AgeAt(dob types.Date, at time.Time) int {
	birth := dob.Time()
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() ||
		(at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age
}

// Create runs the full create pipeline and returns the persisted
// record. Any client-supplied age never reaches this point — the
// request type has no age field — so the derived value always wins.
func (s *Service) Create(ctx context.Context, req *types.CreateStudentRequest) (types.Student, error) {
	if err := validation.Create(req); err != nil {
		return types.Student{}, err
	}

	if err := s.checkUnique(ctx, req.Username, req.Email, ""); err != nil {
		return types.Student{}, err
	}

	// Already validated by the dob rule; parse cannot fail here.
	dob, err := types.ParseDate(req.DateOfBirth)
	if err != nil {
		return types.Student{}, err
	}

	now := s.now().UTC()
	record := types.Student{
		ID:               uuid.NewString(),
		FullName:         req.FullName,
		Username:         req.Username,
		Email:            req.Email,
		DateOfBirth:      dob,
		Age:              AgeAt(dob, now),
		Gender:           req.Gender,
		Phone:            req.Phone,
		AlternatePhone:   req.AlternatePhone,
		Height:           req.Height,
		Weight:           req.Weight,
		PermanentAddress: req.PermanentAddress,
		CurrentAddress:   req.CurrentAddress,
		City:             req.City,
		State:            req.State,
		ZipCode:          req.ZipCode,
		Country:          req.Country,
		CourseProgram:    req.CourseProgram,
		Department:       req.Department,
		FatherName:       req.FatherName,
		MotherName:       req.MotherName,
		GuardianName:     req.GuardianName,
		GuardianContact:  req.GuardianContact,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if c := req.EmergencyContact1; c != nil {
		record.EmergencyContact1 = &types.EmergencyContact{Name: c.Name, Phone: c.Phone}
	}
	if c := req.EmergencyContact2; c != nil {
		record.EmergencyContact2 = &types.EmergencyContact{Name: c.Name, Phone: c.Phone}
	}

	if err := s.storage.CreateStudent(ctx, record); err != nil {
		return types.Student{}, err
	}
	return record, nil
}

// Get fetches one record. A malformed identifier reports not-found,
// never an internal failure — to the client a bad ID and an unknown ID
// are the same thing.
func (s *Service) Get(ctx context.Context, id string) (types.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Student{}, storage.ErrStudentNotFound
	}
	return s.storage.GetStudentByID(ctx, id)
}

// List returns every record in insertion order.
func (s *Service) List(ctx context.Context) ([]types.Student, error) {
	return s.storage.GetStudents(ctx)
}

// Update applies a partial change set to an existing record.
//
// An empty change set is a pure no-op: the stored record is returned
// untouched, UpdatedAt included. Otherwise the merged candidate is
// re-validated as a whole before the single replacing write, so a
// failed update never leaves a partially modified record behind.
func (s *Service) Update(ctx context.Context, id string, req *types.UpdateStudentRequest) (types.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Student{}, storage.ErrStudentNotFound
	}

	if err := validation.Update(req); err != nil {
		return types.Student{}, err
	}

	existing, err := s.storage.GetStudentByID(ctx, id)
	if err != nil {
		return types.Student{}, err
	}

	if req.IsEmpty() {
		return existing, nil
	}

	// Uniqueness is only checked for fields that actually change —
	// a record re-asserting its own username/email is not a conflict,
	// and an unchanged value needs no lookup at all.
	checkUsername, checkEmail := "", ""
	if req.Username != nil && *req.Username != existing.Username {
		checkUsername = *req.Username
	}
	if req.Email != nil && *req.Email != existing.Email {
		checkEmail = *req.Email
	}
	if err := s.checkUnique(ctx, checkUsername, checkEmail, id); err != nil {
		return types.Student{}, err
	}

	merged, err := merge(existing, req)
	if err != nil {
		return types.Student{}, err
	}

	// Recompute age whenever the payload carries a birth date; an
	// update that omits it leaves the stored age untouched.
	if req.DateOfBirth != nil {
		merged.Age = AgeAt(merged.DateOfBirth, s.now().UTC())
	}

	if err := validation.Record(merged); err != nil {
		return types.Student{}, err
	}

	merged.UpdatedAt = s.now().UTC()
	if err := s.storage.UpdateStudent(ctx, merged); err != nil {
		return types.Student{}, err
	}
	return merged, nil
}

// Delete removes a record. Malformed identifiers report not-found,
// matching Get and Update.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrStudentNotFound
	}
	return s.storage.DeleteStudentByID(ctx, id)
}

// checkUnique looks up the candidate username and then the candidate
// email, in that fixed order, so a payload colliding on both reports
// the username first. An empty candidate skips its lookup. selfID
// exempts the record's own row on updates; comparison is by
// identifier, never by value.
func (s *Service) checkUnique(ctx context.Context, username, email, selfID string) error {
	if username != "" {
		other, err := s.storage.GetStudentByUsername(ctx, username)
		switch {
		case err == nil:
			if other.ID != selfID {
				return &storage.ConflictError{Field: "username"}
			}
		case !errors.Is(err, storage.ErrStudentNotFound):
			return err
		}
	}
	if email != "" {
		other, err := s.storage.GetStudentByEmail(ctx, email)
		switch {
		case err == nil:
			if other.ID != selfID {
				return &storage.ConflictError{Field: "email"}
			}
		case !errors.Is(err, storage.ErrStudentNotFound):
			return err
		}
	}
	return nil
}

// merge overlays the present keys of req onto a copy of existing.
// types.Student copies by value; the emergency-contact pointers are
// re-built rather than mutated so the caller's copy stays intact.
func merge(existing types.Student, req *types.UpdateStudentRequest) (types.Student, error) {
	out := existing

	assign(&out.FullName, req.FullName)
	assign(&out.Username, req.Username)
	assign(&out.Email, req.Email)
	assign(&out.Gender, req.Gender)
	assign(&out.Phone, req.Phone)
	assign(&out.AlternatePhone, req.AlternatePhone)
	assign(&out.Height, req.Height)
	assign(&out.Weight, req.Weight)
	assign(&out.PermanentAddress, req.PermanentAddress)
	assign(&out.CurrentAddress, req.CurrentAddress)
	assign(&out.City, req.City)
	assign(&out.State, req.State)
	assign(&out.ZipCode, req.ZipCode)
	assign(&out.Country, req.Country)
	assign(&out.CourseProgram, req.CourseProgram)
	assign(&out.Department, req.Department)
	assign(&out.FatherName, req.FatherName)
	assign(&out.MotherName, req.MotherName)
	assign(&out.GuardianName, req.GuardianName)
	assign(&out.GuardianContact, req.GuardianContact)

	if req.DateOfBirth != nil {
		dob, err := types.ParseDate(*req.DateOfBirth)
		if err != nil {
			return types.Student{}, err
		}
		out.DateOfBirth = dob
	}

	out.EmergencyContact1 = mergeContact(existing.EmergencyContact1, req.EmergencyContact1)
	out.EmergencyContact2 = mergeContact(existing.EmergencyContact2, req.EmergencyContact2)

	return out, nil
}

// mergeContact merges a contact slot at the sub-object level: patching
// only the phone keeps the stored name. Explicitly blanking both
// fields clears the slot.
func mergeContact(existing *types.EmergencyContact, patch *types.EmergencyContactPatch) *types.EmergencyContact {
	if patch == nil {
		return existing
	}
	out := types.EmergencyContact{}
	if existing != nil {
		out = *existing
	}
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Phone != nil {
		out.Phone = *patch.Phone
	}
	if out.Name == "" && out.Phone == "" {
		return nil
	}
	return &out
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

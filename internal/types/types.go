// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, service, storage, and utils can all import types without
// depending on each other.
package types

import (
	"fmt"
	"time"
)

// Gender values accepted by the API. The set is fixed; anything else
// fails validation.
const (
	GenderMale        = "Male"
	GenderFemale      = "Female"
	GenderOther       = "Other"
	GenderUnspecified = "Prefer not to say"
)

// dateLayout is the wire format for calendar dates: "2006-01-02".
const dateLayout = "2006-01-02"

// Date is a calendar date (no time-of-day component). It marshals to
// JSON as "YYYY-MM-DD" and unmarshals from either that form or a full
// RFC 3339 timestamp, which gets truncated to its date part. The
// underlying time is always midnight UTC so two Dates built from the
// same calendar day compare equal.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD" or an RFC 3339 timestamp into a Date.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// After reports whether d falls after other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// String renders the date in wire format.
func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalJSON encodes the date as a quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted date or RFC 3339 string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s: want a JSON string", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EmergencyContact is a sub-object embedded in a Student. It has no
// identity of its own — it lives and dies with its owning record.
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Student represents one student record.
//
// ID is an opaque UUID assigned at creation and never changed.
// Username and Email are globally unique; Email is stored lowercased.
// Age is derived from DateOfBirth on every write that sets or changes
// the birth date — clients cannot set it directly.
// CreatedAt/UpdatedAt are system-assigned.
type Student struct {
	ID string `json:"id"`

	// Basic information
	FullName    string `json:"fullName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DateOfBirth Date   `json:"dateOfBirth"`
	Age         int    `json:"age"`
	Gender      string `json:"gender,omitempty"`
	Phone       string `json:"phone"`

	// Optional details. Height/weight are free text so units can ride
	// along ("175 cm", "70 kg").
	AlternatePhone   string `json:"alternatePhone,omitempty"`
	Height           string `json:"height,omitempty"`
	Weight           string `json:"weight,omitempty"`
	PermanentAddress string `json:"permanentAddress,omitempty"`
	CurrentAddress   string `json:"currentAddress,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	ZipCode          string `json:"zipCode,omitempty"`
	Country          string `json:"country,omitempty"`

	// Academic info
	CourseProgram string `json:"courseProgram,omitempty"`
	Department    string `json:"department,omitempty"`

	// Parent / guardian info
	FatherName      string `json:"fatherName,omitempty"`
	MotherName      string `json:"motherName,omitempty"`
	GuardianName    string `json:"guardianName,omitempty"`
	GuardianContact string `json:"guardianContact,omitempty"`

	// Exactly two emergency-contact slots, each independently optional.
	EmergencyContact1 *EmergencyContact `json:"emergencyContact1,omitempty"`
	EmergencyContact2 *EmergencyContact `json:"emergencyContact2,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EmergencyContactInput is the create-time shape of a contact slot.
type EmergencyContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

// CreateStudentRequest is the POST /api/students body.
//
// There is deliberately no age field: age is always derived from
// dateOfBirth, so a client-supplied value has nowhere to land (unknown
// JSON keys are ignored by the decoder).
//
// The validate:"..." tags are checked by the validation package, which
// trims every free-text field first — "  " therefore fails "required".
// "dob" and "phone" are custom rules registered there.
type CreateStudentRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,dob"`
	Gender      string `json:"gender" validate:"omitempty,oneof='Male' 'Female' 'Other' 'Prefer not to say'"`
	Phone       string `json:"phone" validate:"required,phone"`

	AlternatePhone   string `json:"alternatePhone" validate:"omitempty,phone"`
	Height           string `json:"height"`
	Weight           string `json:"weight"`
	PermanentAddress string `json:"permanentAddress"`
	CurrentAddress   string `json:"currentAddress"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZipCode          string `json:"zipCode"`
	Country          string `json:"country"`

	CourseProgram string `json:"courseProgram"`
	Department    string `json:"department"`

	FatherName      string `json:"fatherName"`
	MotherName      string `json:"motherName"`
	GuardianName    string `json:"guardianName"`
	GuardianContact string `json:"guardianContact"`

	EmergencyContact1 *EmergencyContactInput `json:"emergencyContact1"`
	EmergencyContact2 *EmergencyContactInput `json:"emergencyContact2"`
}

// EmergencyContactPatch updates a contact slot field-by-field: a nil
// pointer leaves the stored value alone, so patching only the phone
// keeps the stored name.
type EmergencyContactPatch struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone" validate:"omitempty,phone"`
}

// UpdateStudentRequest is the PUT /api/students/{id} body. Every field
// is a pointer: present keys are the change set, absent keys keep
// their stored values. Required-on-create fields may not be blanked
// out, hence the min=1 rules (applied after trimming).
type UpdateStudentRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,min=1"`
	Username    *string `json:"username" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,dob"`
	Gender      *string `json:"gender" validate:"omitempty,oneof='Male' 'Female' 'Other' 'Prefer not to say'"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`

	AlternatePhone   *string `json:"alternatePhone" validate:"omitempty,phone"`
	Height           *string `json:"height"`
	Weight           *string `json:"weight"`
	PermanentAddress *string `json:"permanentAddress"`
	CurrentAddress   *string `json:"currentAddress"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	ZipCode          *string `json:"zipCode"`
	Country          *string `json:"country"`

	CourseProgram *string `json:"courseProgram"`
	Department    *string `json:"department"`

	FatherName      *string `json:"fatherName"`
	MotherName      *string `json:"motherName"`
	GuardianName    *string `json:"guardianName"`
	GuardianContact *string `json:"guardianContact"`

	EmergencyContact1 *EmergencyContactPatch `json:"emergencyContact1"`
	EmergencyContact2 *EmergencyContactPatch `json:"emergencyContact2"`
}

// IsEmpty reports whether the request carries no changes at all.
// An empty change set is a valid no-op update.
func (r *UpdateStudentRequest) IsEmpty() bool {
	return r.FullName == nil && r.Username == nil && r.Email == nil &&
		r.DateOfBirth == nil && r.Gender == nil && r.Phone == nil &&
		r.AlternatePhone == nil && r.Height == nil && r.Weight == nil &&
		r.PermanentAddress == nil && r.CurrentAddress == nil &&
		r.City == nil && r.State == nil && r.ZipCode == nil &&
		r.Country == nil && r.CourseProgram == nil && r.Department == nil &&
		r.FatherName == nil && r.MotherName == nil &&
		r.GuardianName == nil && r.GuardianContact == nil &&
		r.EmergencyContact1 == nil && r.EmergencyContact2 == nil
}

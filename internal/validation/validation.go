// Package validation is the single gate every inbound student payload
// passes through before the service layer touches storage.
//
// It differs from running validator.Struct directly in two ways that
// matter to API consumers:
//
//  1. Inputs are normalised first — every free-text field is trimmed
//     of leading/trailing whitespace and the email is lowercased — so
//     "  " fails a required check and "A@B.COM" and "a@b.com" collide.
//
//  2. Failures are accumulated, not short-circuited: the caller gets
//     every violated field as an ordered (field, message) list and can
//     report all problems in one response.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nikhil-saxena/student-records-api/internal/types"
)

// FieldError is one violated rule: which field and why.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every violation found in one pass, in struct-field
// order. It satisfies the error interface so it can travel up through
// the service layer like any other failure.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// validate is shared by every call. validator.Validate is safe for
// concurrent use once the custom rules are registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields under their JSON names ("fullName", not "FullName")
	// so error messages line up with what the client actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Custom rules referenced from the validate tags in types.
	v.RegisterValidation("phone", phoneRule)
	v.RegisterValidation("dob", dateOfBirthRule)

	return v
}

// phoneDigits matches an optional leading + followed by 7–15 digits,
// checked after stripping common separators. Deliberately permissive:
// any-country numbers with spaces, dots, dashes, or parentheses pass.
var phoneDigits = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

func phoneRule(fl validator.FieldLevel) bool {
	return phoneDigits.MatchString(phoneSeparators.Replace(fl.Field().String()))
}

// dateOfBirthRule accepts an ISO-8601 date that is not in the future.
func dateOfBirthRule(fl validator.FieldLevel) bool {
	d, err := types.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	now := time.Now().UTC()
	today := types.NewDate(now.Year(), now.Month(), now.Day())
	return !d.After(today)
}

// Create normalises the payload in place, then checks every field rule
// and returns a *Error listing all violations, or nil.
func Create(req *types.CreateStudentRequest) error {
	normalizeCreate(req)
	if err := validate.Struct(req); err != nil {
		return translate(err.(validator.ValidationErrors))
	}
	return nil
}

// Update normalises the change set in place and checks every present
// field; absent (nil) fields are skipped entirely.
func Update(req *types.UpdateStudentRequest) error {
	normalizeUpdate(req)
	if err := validate.Struct(req); err != nil {
		return translate(err.(validator.ValidationErrors))
	}
	return nil
}

// Record re-validates a fully merged record before it is persisted.
// It funnels the record back through the create rules so a partial
// update can never produce a stored state a create would have refused.
func Record(s types.Student) error {
	req := types.CreateStudentRequest{
		FullName:         s.FullName,
		Username:         s.Username,
		Email:            s.Email,
		DateOfBirth:      s.DateOfBirth.String(),
		Gender:           s.Gender,
		Phone:            s.Phone,
		AlternatePhone:   s.AlternatePhone,
		Height:           s.Height,
		Weight:           s.Weight,
		PermanentAddress: s.PermanentAddress,
		CurrentAddress:   s.CurrentAddress,
		City:             s.City,
		State:            s.State,
		ZipCode:          s.ZipCode,
		Country:          s.Country,
		CourseProgram:    s.CourseProgram,
		Department:       s.Department,
		FatherName:       s.FatherName,
		MotherName:       s.MotherName,
		GuardianName:     s.GuardianName,
		GuardianContact:  s.GuardianContact,
	}
	if s.EmergencyContact1 != nil {
		req.EmergencyContact1 = &types.EmergencyContactInput{
			Name:  s.EmergencyContact1.Name,
			Phone: s.EmergencyContact1.Phone,
		}
	}
	if s.EmergencyContact2 != nil {
		req.EmergencyContact2 = &types.EmergencyContactInput{
			Name:  s.EmergencyContact2.Name,
			Phone: s.EmergencyContact2.Phone,
		}
	}
	return Create(&req)
}

// translate converts validator's error list into our ordered domain
// error. validator reports fields in struct declaration order, which
// gives the stable ordering the API promises.
func translate(errs validator.ValidationErrors) *Error {
	out := &Error{Fields: make([]FieldError, 0, len(errs))}
	for _, e := range errs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldName(e),
			Message: message(e),
		})
	}
	return out
}

// fieldName strips the root struct from the namespace so nested fields
// read "emergencyContact1.phone" rather than
// "CreateStudentRequest.emergencyContact1.phone".
func fieldName(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "dob":
		return "must be a valid past or present date (YYYY-MM-DD)"
	case "phone":
		return "must be a valid phone number"
	case "oneof":
		return "must be one of: Male, Female, Other, Prefer not to say"
	default:
		return "is invalid"
	}
}

func normalizeCreate(req *types.CreateStudentRequest) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	req.Gender = strings.TrimSpace(req.Gender)
	req.Phone = strings.TrimSpace(req.Phone)
	req.AlternatePhone = strings.TrimSpace(req.AlternatePhone)
	req.Height = strings.TrimSpace(req.Height)
	req.Weight = strings.TrimSpace(req.Weight)
	req.PermanentAddress = strings.TrimSpace(req.PermanentAddress)
	req.CurrentAddress = strings.TrimSpace(req.CurrentAddress)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.ZipCode = strings.TrimSpace(req.ZipCode)
	req.Country = strings.TrimSpace(req.Country)
	req.CourseProgram = strings.TrimSpace(req.CourseProgram)
	req.Department = strings.TrimSpace(req.Department)
	req.FatherName = strings.TrimSpace(req.FatherName)
	req.MotherName = strings.TrimSpace(req.MotherName)
	req.GuardianName = strings.TrimSpace(req.GuardianName)
	req.GuardianContact = strings.TrimSpace(req.GuardianContact)
	if c := req.EmergencyContact1; c != nil {
		c.Name = strings.TrimSpace(c.Name)
		c.Phone = strings.TrimSpace(c.Phone)
	}
	if c := req.EmergencyContact2; c != nil {
		c.Name = strings.TrimSpace(c.Name)
		c.Phone = strings.TrimSpace(c.Phone)
	}
}

func normalizeUpdate(req *types.UpdateStudentRequest) {
	trim(req.FullName)
	trim(req.Username)
	lower(req.Email)
	trim(req.DateOfBirth)
	trim(req.Gender)
	trim(req.Phone)
	trim(req.AlternatePhone)
	trim(req.Height)
	trim(req.Weight)
	trim(req.PermanentAddress)
	trim(req.CurrentAddress)
	trim(req.City)
	trim(req.State)
	trim(req.ZipCode)
	trim(req.Country)
	trim(req.CourseProgram)
	trim(req.Department)
	trim(req.FatherName)
	trim(req.MotherName)
	trim(req.GuardianName)
	trim(req.GuardianContact)
	if c := req.EmergencyContact1; c != nil {
		trim(c.Name)
		trim(c.Phone)
	}
	if c := req.EmergencyContact2; c != nil {
		trim(c.Name)
		trim(c.Phone)
	}
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func lower(s *string) {
	if s != nil {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
}

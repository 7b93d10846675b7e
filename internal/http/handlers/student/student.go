// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like the service.
// To inject dependencies we use a factory function that:
//  1. Accepts dependencies (the student service)
//  2. Returns a function with the exact signature the router needs
//
// Because the inner function "closes over" the outer parameters, it can
// access the service even after the factory call has returned:
//
//	router.HandleFunc("POST /api/students", student.New(svc))
//	//                                      New(svc) runs ONCE at
//	//                                      startup; the returned func
//	//                                      runs on EVERY request.
//
// Handlers stay thin: decode, delegate to the service, translate the
// domain error into a status code. All validation, uniqueness, and
// merge logic lives behind the service boundary.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	service "github.com/nikhil-saxena/student-records-api/internal/service/student"
	"github.com/nikhil-saxena/student-records-api/internal/storage"
	"github.com/nikhil-saxena/student-records-api/internal/types"
	"github.com/nikhil-saxena/student-records-api/internal/utils/response"
	"github.com/nikhil-saxena/student-records-api/internal/validation"
)

// errInternal is what clients see for unexpected failures — backend
// details never leak into a response body.
var errInternal = errors.New("internal server error")

// writeError translates the service's error taxonomy into HTTP:
//
//	validation failure          → 400 + full field list
//	username/email conflict     → 400 + colliding field
//	unknown or malformed id     → 404
//	anything else (storage)     → 500, logged server-side
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *validation.Error
		conflictErr   *storage.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validationErr))
	case errors.As(err, &conflictErr):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(conflictErr))
	case errors.Is(err, storage.ErrStudentNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrStudentNotFound))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errInternal))
	}
}

// New handles POST /api/students.
// Creates a student from the JSON request body and returns the full
// persisted record, 201 Created. Failures: 400 with the accumulated
// validation list or the conflicting field.
func New(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudentRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			// io.EOF means the body was completely empty — nothing to decode.
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			// Malformed JSON, wrong types, unparseable dates, etc.
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		created, err := svc.Create(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}

		slog.Info("student created",
			slog.String("id", created.ID),
			slog.String("username", created.Username))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetByID handles GET /api/students/{id}.
// 200 with the record, 404 when the id is unknown or malformed.
func GetByID(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.PathValue("id") extracts the {id} segment from the URL
		// (Go 1.22+ named path parameters in ServeMux patterns).
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		record, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, record)
	}
}

// GetList handles GET /api/students.
// Returns all records in insertion order; an empty array (never null)
// when there are none.
func GetList(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		records, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, records)
	}
}

// Update handles PUT /api/students/{id}.
// The body is a partial change set: only the keys present are applied,
// nested emergency contacts merge field-by-field, and an empty object
// is a no-op. Returns the full updated record.
func Update(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		var req types.UpdateStudentRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := svc.Update(r.Context(), id, &req)
		if err != nil {
			writeError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/students/{id}.
// 204 No Content on success, 404 when the id is unknown or malformed.
func Delete(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

package student_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nikhil-saxena/student-records-api/internal/http/handlers/student"
	service "github.com/nikhil-saxena/student-records-api/internal/service/student"
	"github.com/nikhil-saxena/student-records-api/internal/storage/memory"
	"github.com/nikhil-saxena/student-records-api/internal/types"
)

// newServer wires the real route table over an in-memory store with a
// pinned clock, so handler tests exercise the same path production
// requests take — minus the sqlite file.
func newServer() *httptest.Server {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	svc := service.NewWithClock(memory.New(), func() time.Time { return now })

	router := http.NewServeMux()
	router.HandleFunc("POST /api/students", student.New(svc))
	router.HandleFunc("GET /api/students", student.GetList(svc))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(svc))
	router.HandleFunc("PUT /api/students/{id}", student.Update(svc))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(svc))

	return httptest.NewServer(router)
}

const createBody = `{
	"fullName": "Asha Rao",
	"username": "asha.rao",
	"email": "asha@example.com",
	"dateOfBirth": "2001-05-17",
	"gender": "Female",
	"phone": "+91 98765 43210",
	"emergencyContact1": {"name": "Ravi Rao", "phone": "+91 91234 56789"}
}`

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func createStudent(t *testing.T, ts *httptest.Server) types.Student {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/students", createBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", resp.StatusCode, body)
	}
	var created types.Student
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created student: %v", err)
	}
	return created
}

func TestCreateReturnsPersistedRecord(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	created := createStudent(t, ts)

	if created.ID == "" {
		t.Error("created record has no id")
	}
	if created.Age != 25 {
		t.Errorf("age = %d, want 25 (derived from dateOfBirth)", created.Age)
	}
	if created.EmergencyContact1 == nil || created.EmergencyContact1.Name != "Ravi Rao" {
		t.Errorf("emergency contact not persisted: %+v", created.EmergencyContact1)
	}
}

func TestCreateDiscardsClientSuppliedAge(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	// "age" is not a recognised input field; the derived value wins.
	body := strings.Replace(createBody, `"fullName"`, `"age": 99, "fullName"`, 1)
	resp, respBody := doJSON(t, http.MethodPost, ts.URL+"/api/students", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, respBody)
	}

	var created types.Student
	if err := json.Unmarshal(respBody, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Age != 25 {
		t.Errorf("age = %d, want derived 25, not client-sent 99", created.Age)
	}
}

func TestCreateValidationFailureListsEveryField(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/students",
		`{"fullName": " ", "email": "nope", "dateOfBirth": "2001-05-17", "username": "x", "phone": "bad"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var envelope struct {
		Status string `json:"status"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Status != "error" {
		t.Errorf("status = %q, want error", envelope.Status)
	}

	want := []string{"fullName", "email", "phone"}
	if len(envelope.Errors) != len(want) {
		t.Fatalf("errors = %+v, want fields %v", envelope.Errors, want)
	}
	for i, f := range want {
		if envelope.Errors[i].Field != f {
			t.Errorf("errors[%d].field = %q, want %q", i, envelope.Errors[i].Field, f)
		}
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	ts := newServer()
	defer ts.Close()
	createStudent(t, ts)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/students",
		strings.Replace(createBody, "asha@example.com", "other@example.com", 1))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(string(body), "username already exists") {
		t.Errorf("body = %s, want username conflict message", body)
	}
}

func TestCreateEmptyBody(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/students", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(string(body), "request body is empty") {
		t.Errorf("body = %s, want empty-body message", body)
	}
}

func TestGetByID(t *testing.T) {
	ts := newServer()
	defer ts.Close()
	created := createStudent(t, ts)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/students/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var got types.Student
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID || got.Username != created.Username {
		t.Errorf("got %+v, want the created record", got)
	}
}

func TestGetUnknownAndMalformedIDsAre404(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	for _, id := range []string{"7f2f1a2e-8f7a-4d5c-9e5b-111122223333", "not-a-uuid"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/students/"+id, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", id, resp.StatusCode)
		}
	}
}

func TestListReturnsEmptyArrayNotNull(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/students", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestUpdateMergesPartialBody(t *testing.T) {
	ts := newServer()
	defer ts.Close()
	created := createStudent(t, ts)

	resp, body := doJSON(t, http.MethodPut, ts.URL+"/api/students/"+created.ID,
		`{"city": "Mumbai", "emergencyContact1": {"phone": "+91 99887 76655"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var updated types.Student
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.City != "Mumbai" {
		t.Errorf("city = %q, want Mumbai", updated.City)
	}
	// Sub-object merge: the name survives a phone-only patch.
	if updated.EmergencyContact1 == nil ||
		updated.EmergencyContact1.Name != "Ravi Rao" ||
		updated.EmergencyContact1.Phone != "+91 99887 76655" {
		t.Errorf("contact = %+v, want name kept and phone replaced", updated.EmergencyContact1)
	}
	if updated.Username != created.Username || updated.Email != created.Email {
		t.Errorf("untouched fields drifted: %+v", updated)
	}
}

func TestUpdateUnknownIDIs404(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	resp, _ := doJSON(t, http.MethodPut,
		ts.URL+"/api/students/7f2f1a2e-8f7a-4d5c-9e5b-111122223333", `{"city": "Pune"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	ts := newServer()
	defer ts.Close()
	created := createStudent(t, ts)

	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/api/students/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if len(body) != 0 {
		t.Errorf("204 response carried a body: %s", body)
	}

	// Gone means gone: a second delete is a 404.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/students/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", resp.StatusCode)
	}
}

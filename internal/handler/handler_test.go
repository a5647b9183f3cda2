package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/Shivanand-hulikatti/studio-booking/internal/repository"
	"github.com/Shivanand-hulikatti/studio-booking/internal/service"
	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
	"github.com/google/uuid"
)

// Mock service for testing
type mockStudio struct {
	createClassFunc       func(ctx context.Context, req model.CreateClassRequest) (*model.Class, error)
	listClassesFunc       func(ctx context.Context, zone string) ([]model.Class, error)
	getClassFunc          func(ctx context.Context, id int64, zone string) (*model.Class, error)
	bookFunc              func(ctx context.Context, req model.BookRequest) (*model.Booking, error)
	bookingsForFunc       func(ctx context.Context, email string) ([]model.Booking, error)
	listClassBookingsFunc func(ctx context.Context, classID int64) ([]model.Booking, error)
}

func (m *mockStudio) CreateClass(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
	return m.createClassFunc(ctx, req)
}

func (m *mockStudio) ListClasses(ctx context.Context, zone string) ([]model.Class, error) {
	return m.listClassesFunc(ctx, zone)
}

func (m *mockStudio) GetClass(ctx context.Context, id int64, zone string) (*model.Class, error) {
	return m.getClassFunc(ctx, id, zone)
}

func (m *mockStudio) Book(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
	return m.bookFunc(ctx, req)
}

func (m *mockStudio) BookingsFor(ctx context.Context, email string) ([]model.Booking, error) {
	return m.bookingsForFunc(ctx, email)
}

func (m *mockStudio) ListClassBookings(ctx context.Context, classID int64) ([]model.Booking, error) {
	return m.listClassBookingsFunc(ctx, classID)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func serve(t *testing.T, svc Studio, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	log := logger.Discard()
	router := NewRouter(NewStudioHandler(svc, "Asia/Kolkata", log), fakePinger{}, log)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCreateClass_Created(t *testing.T) {
	var received model.CreateClassRequest
	svc := &mockStudio{
		createClassFunc: func(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
			received = req
			return &model.Class{
				ID:             1,
				Name:           req.Name,
				StartTime:      req.StartTime.Time.UTC(),
				Instructor:     req.Instructor,
				AvailableSlots: *req.AvailableSlots,
			}, nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/classes",
		`{"name":"Test Yoga","dateTime":"2025-06-15T10:00:00+05:30","instructor":"Test Instructor","availableSlots":10}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !received.StartTime.Zoned {
		t.Error("expected zoned start time to reach the service")
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["name"] != "Test Yoga" || body["availableSlots"] != float64(10) {
		t.Errorf("unexpected body %v", body)
	}
	if body["dateTime"] != "2025-06-15T04:30:00Z" {
		t.Errorf("unexpected dateTime %v", body["dateTime"])
	}
}

func TestCreateClass_NaiveTimeReachesService(t *testing.T) {
	var received model.CreateClassRequest
	svc := &mockStudio{
		createClassFunc: func(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
			received = req
			return &model.Class{ID: 1}, nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/classes",
		`{"name":"Yoga","dateTime":"2025-06-15T10:00:00","instructor":"Ann","availableSlots":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if received.StartTime.Zoned {
		t.Error("naive input must not be marked zoned")
	}
}

func TestCreateClass_BadBody(t *testing.T) {
	svc := &mockStudio{}
	tests := []string{
		`{"name":`,
		`{"name":"Yoga","dateTime":"tomorrow","instructor":"Ann","availableSlots":3}`,
		`["Yoga"]`,
	}
	for _, body := range tests {
		rec := serve(t, svc, http.MethodPost, "/classes", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("body %s: expected 422, got %d", body, rec.Code)
		}
	}
}

func TestCreateClass_IgnoresUnknownFields(t *testing.T) {
	called := false
	svc := &mockStudio{
		createClassFunc: func(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
			called = true
			return &model.Class{ID: 1, Name: req.Name, StartTime: req.StartTime.Time.UTC(), Instructor: req.Instructor, AvailableSlots: *req.AvailableSlots}, nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/classes",
		`{"name":"Yoga","dateTime":"2025-06-15T10:00:00Z","instructor":"Ann","availableSlots":3,"room":"B"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !called {
		t.Error("expected the service to be called")
	}
}

func TestCreateClass_ValidationError(t *testing.T) {
	svc := &mockStudio{
		createClassFunc: func(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
			return nil, service.ValidationErrors{{Field: "availableSlots", Message: "availableSlots must be at least 0"}}
		},
	}

	rec := serve(t, svc, http.MethodPost, "/classes",
		`{"name":"Yoga","dateTime":"2025-06-15T10:00:00Z","instructor":"Ann","availableSlots":-1}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeValidation {
		t.Errorf("expected %s, got %s", CodeValidation, resp.Code)
	}
}

func TestListClasses_PassesZone(t *testing.T) {
	tests := []struct {
		target   string
		wantZone string
	}{
		{target: "/classes", wantZone: ""},
		{target: "/classes?tz=UTC", wantZone: "UTC"},
		{target: "/classes_in_timezone", wantZone: "Asia/Kolkata"},
		{target: "/classes_in_timezone?tz=US/Eastern", wantZone: "US/Eastern"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var got string
			svc := &mockStudio{
				listClassesFunc: func(ctx context.Context, zone string) ([]model.Class, error) {
					got = zone
					return nil, nil
				},
			}
			rec := serve(t, svc, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got != tt.wantZone {
				t.Errorf("zone = %q, want %q", got, tt.wantZone)
			}
			if strings.TrimSpace(rec.Body.String()) != "[]" {
				t.Errorf("expected empty array, got %s", rec.Body.String())
			}
		})
	}
}

func TestListClasses_InvalidTimezone(t *testing.T) {
	svc := &mockStudio{
		listClassesFunc: func(ctx context.Context, zone string) ([]model.Class, error) {
			return nil, fmt.Errorf("%w: %q", timezone.ErrInvalidTimezone, zone)
		},
	}

	rec := serve(t, svc, http.MethodGet, "/classes_in_timezone?tz=Nowhere/Land", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeInvalidTimezone {
		t.Errorf("expected %s, got %s", CodeInvalidTimezone, resp.Code)
	}
}

func TestListClasses_RendersOffset(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	svc := &mockStudio{
		listClassesFunc: func(ctx context.Context, zone string) ([]model.Class, error) {
			return []model.Class{{ID: 1, Name: "Yoga", StartTime: time.Date(2025, 6, 15, 10, 0, 0, 0, kolkata)}}, nil
		},
	}

	rec := serve(t, svc, http.MethodGet, "/classes_in_timezone", "")
	if !strings.Contains(rec.Body.String(), `"dateTime":"2025-06-15T10:00:00+05:30"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestGetClass(t *testing.T) {
	svc := &mockStudio{
		getClassFunc: func(ctx context.Context, id int64, zone string) (*model.Class, error) {
			if id != 7 {
				return nil, repository.ErrNotFound
			}
			return &model.Class{ID: 7, Name: "HIIT"}, nil
		},
	}

	if rec := serve(t, svc, http.MethodGet, "/classes/7", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := serve(t, svc, http.MethodGet, "/classes/8", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := serve(t, svc, http.MethodGet, "/classes/abc", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestBook_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{name: "created", status: http.StatusCreated},
		{name: "not found", err: repository.ErrNotFound, status: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "full", err: repository.ErrCapacityExceeded, status: http.StatusBadRequest, wantCode: CodeCapacityExceeded},
		{name: "invalid", err: service.ValidationErrors{{Field: "client_email", Message: "bad"}}, status: http.StatusUnprocessableEntity, wantCode: CodeValidation},
		{name: "store down", err: errors.New("book class: connection refused"), status: http.StatusInternalServerError, wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockStudio{
				bookFunc: func(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Booking{
						ID:          1,
						Reference:   uuid.New(),
						ClassID:     *req.ClassID,
						ClientName:  req.ClientName,
						ClientEmail: req.ClientEmail,
					}, nil
				},
			}

			rec := serve(t, svc, http.MethodPost, "/book",
				`{"class_id":1,"client_name":"Test Client","client_email":"test@example.com"}`)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				if resp := decodeError(t, rec); resp.Code != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
				}
				return
			}

			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["client_email"] != "test@example.com" || body["class_id"] != float64(1) {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}

func TestBook_ClassIDZeroIsNotFound(t *testing.T) {
	var received model.BookRequest
	svc := &mockStudio{
		bookFunc: func(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
			received = req
			return nil, repository.ErrNotFound
		},
	}

	rec := serve(t, svc, http.MethodPost, "/book",
		`{"class_id":0,"client_name":"Test Client","client_email":"test@example.com"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeError(t, rec); resp.Code != CodeNotFound {
		t.Errorf("expected %s, got %s", CodeNotFound, resp.Code)
	}
	if received.ClassID == nil || *received.ClassID != 0 {
		t.Errorf("expected class_id 0 to reach the service, got %v", received.ClassID)
	}
}

func TestBook_MissingClassIDReachesValidation(t *testing.T) {
	var received model.BookRequest
	svc := &mockStudio{
		bookFunc: func(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
			received = req
			return nil, service.ValidationErrors{{Field: "class_id", Message: "class_id is required"}}
		},
	}

	rec := serve(t, svc, http.MethodPost, "/book",
		`{"client_name":"Test Client","client_email":"test@example.com"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if received.ClassID != nil {
		t.Errorf("expected nil class_id, got %d", *received.ClassID)
	}
}

func TestGetBookings(t *testing.T) {
	var (
		got   string
		calls int
	)
	svc := &mockStudio{
		bookingsForFunc: func(ctx context.Context, email string) ([]model.Booking, error) {
			got = email
			calls++
			return nil, nil
		},
	}

	rec := serve(t, svc, http.MethodGet, "/bookings?email=Test2%40Example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "Test2@Example.com" {
		t.Errorf("email must reach the service unchanged, got %q", got)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}

	rec = serve(t, svc, http.MethodGet, "/bookings?email=", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty email, got %d", rec.Code)
	}
	if got != "" || calls != 2 {
		t.Errorf("empty email must be looked up, got %q after %d calls", got, calls)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}

	rec = serve(t, svc, http.MethodGet, "/bookings", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 without email, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeValidation {
		t.Errorf("expected %s, got %s", CodeValidation, resp.Code)
	}
	if calls != 2 {
		t.Errorf("service must not be called without email, got %d calls", calls)
	}
}

func TestListClassBookings(t *testing.T) {
	svc := &mockStudio{
		listClassBookingsFunc: func(ctx context.Context, classID int64) ([]model.Booking, error) {
			if classID == 9 {
				return nil, repository.ErrNotFound
			}
			return []model.Booking{{ID: 1, ClassID: classID}}, nil
		},
	}

	if rec := serve(t, svc, http.MethodGet, "/classes/3/bookings", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := serve(t, svc, http.MethodGet, "/classes/9/bookings", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheck(fakePinger{})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HealthCheck(fakePinger{err: errors.New("down")})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := serve(t, &mockStudio{}, http.MethodOptions, "/book", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

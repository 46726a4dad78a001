package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldops-hq/leaveflow/internal/engine"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/core"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// MockRequestRepo implements engine.RequestRepo for testing
type MockRequestRepo struct {
	SaveFunc              func(req *domain.VacationRequest) (int64, error)
	FindByIDFunc          func(id int64) (*domain.VacationRequest, error)
	FindByExternalIDFunc  func(externalID string) (*domain.VacationRequest, error)
	SearchFunc            func(filter models.RequestFilter) (*[]domain.VacationRequest, error)
	UpdateDecisionFunc    func(id int64, status domain.Status, approvals string, seenModified time.Time, newModified time.Time) (bool, error)
	FindModifiedSinceFunc func(since time.Time, limit int) (*[]domain.VacationRequest, error)
}

func (m *MockRequestRepo) Save(req *domain.VacationRequest) (int64, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(req)
	}
	return 1, nil
}
func (m *MockRequestRepo) FindByID(id int64) (*domain.VacationRequest, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, nil
}
func (m *MockRequestRepo) FindByExternalID(externalID string) (*domain.VacationRequest, error) {
	if m.FindByExternalIDFunc != nil {
		return m.FindByExternalIDFunc(externalID)
	}
	return nil, nil
}
func (m *MockRequestRepo) Search(filter models.RequestFilter) (*[]domain.VacationRequest, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(filter)
	}
	return nil, nil
}
func (m *MockRequestRepo) UpdateDecision(id int64, status domain.Status, approvals string, seenModified time.Time, newModified time.Time) (bool, error) {
	if m.UpdateDecisionFunc != nil {
		return m.UpdateDecisionFunc(id, status, approvals, seenModified, newModified)
	}
	return true, nil
}
func (m *MockRequestRepo) FindModifiedSince(since time.Time, limit int) (*[]domain.VacationRequest, error) {
	if m.FindModifiedSinceFunc != nil {
		return m.FindModifiedSinceFunc(since, limit)
	}
	return nil, nil
}

// MockActionRepo implements engine.ActionRepo for testing
type MockActionRepo struct {
	SaveFunc               func(a *domain.RequestAction) (int64, error)
	FindAllByRequestIDFunc func(requestID int64) (*[]domain.RequestAction, error)
}

func (m *MockActionRepo) Save(a *domain.RequestAction) (int64, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(a)
	}
	return 1, nil
}
func (m *MockActionRepo) FindAllByRequestID(requestID int64) (*[]domain.RequestAction, error) {
	if m.FindAllByRequestIDFunc != nil {
		return m.FindAllByRequestIDFunc(requestID)
	}
	return nil, nil
}

func newTestVacationsController(requestRepo *MockRequestRepo, actionRepo *MockActionRepo, userRepo *MockUserRepo) *VacationsController {
	eng := engine.NewWorkflowEngine(requestRepo, actionRepo, engine.NewNotifier(4), core.NewRealClock())
	return NewVacationsController(eng, userRepo)
}

func authenticatedRequest(method, target string, body string, user *domain.User) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(contextWithUser(context.Background(), user))
}

func employeeUser() *domain.User {
	return &domain.User{ID: 7, Username: "dana", FullName: "Dana Fields", Role: domain.RoleEmployee}
}

func hrUser() *domain.User {
	return &domain.User{ID: 2, Username: "hope", FullName: "Hope Reyes", Role: domain.RoleHR}
}

func storedRequest(status domain.Status) *domain.VacationRequest {
	now := time.Now().UTC()
	return &domain.VacationRequest{
		ID:           42,
		ExternalID:   "ext-42",
		EmployeeID:   7,
		EmployeeName: "Dana Fields",
		EmployeeRole: domain.RoleEmployee,
		StartDate:    now.AddDate(0, 1, 0),
		EndDate:      now.AddDate(0, 1, 7),
		Reason:       "Family trip",
		Status:       status,
		Approvals:    domain.NewApprovals(),
		Created:      now,
		Modified:     now,
	}
}

func TestVacationsController_Submit_Success(t *testing.T) {
	requestRepo := &MockRequestRepo{
		SaveFunc: func(req *domain.VacationRequest) (int64, error) { return 42, nil },
	}
	userRepo := &MockUserRepo{
		FindByIdFunc: func(id int64) (*domain.User, error) {
			return &domain.User{ID: id, FullName: "Rob Keller", Role: domain.RoleEmployee}, nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, userRepo)

	start := time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339)
	end := time.Now().UTC().AddDate(0, 1, 7).Format(time.RFC3339)
	body := fmt.Sprintf(`{"startDate":%q,"endDate":%q,"reason":"Family trip","replacementUserId":9}`, start, end)
	req := authenticatedRequest("POST", "/api/vacations", body, employeeUser())
	w := httptest.NewRecorder()
	c.handleSubmit(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, w.Body.String())
	}
	var record domain.VacationRequest
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if record.Status != domain.StatusPending {
		t.Errorf("Expected pending, got %s", record.Status)
	}
	if record.EmployeeID != 7 || record.EmployeeName != "Dana Fields" {
		t.Errorf("Expected the authenticated identity on the record, got %+v", record)
	}
	if record.ReplacementUserName != "Rob Keller" {
		t.Errorf("Expected replacement name resolved, got %q", record.ReplacementUserName)
	}
}

func TestVacationsController_Submit_InvalidJSON(t *testing.T) {
	c := newTestVacationsController(&MockRequestRepo{}, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations", "{not json", employeeUser())
	w := httptest.NewRecorder()
	c.handleSubmit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestVacationsController_Submit_MissingFields(t *testing.T) {
	c := newTestVacationsController(&MockRequestRepo{}, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations", `{"reason":"trip"}`, employeeUser())
	w := httptest.NewRecorder()
	c.handleSubmit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestVacationsController_Submit_UnknownReplacement(t *testing.T) {
	userRepo := &MockUserRepo{
		FindByIdFunc: func(id int64) (*domain.User, error) { return nil, nil },
	}
	c := newTestVacationsController(&MockRequestRepo{}, &MockActionRepo{}, userRepo)

	start := time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339)
	end := time.Now().UTC().AddDate(0, 1, 7).Format(time.RFC3339)
	body := fmt.Sprintf(`{"startDate":%q,"endDate":%q,"reason":"trip","replacementUserId":9}`, start, end)
	req := authenticatedRequest("POST", "/api/vacations", body, employeeUser())
	w := httptest.NewRecorder()
	c.handleSubmit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestVacationsController_Submit_PastStartDate(t *testing.T) {
	userRepo := &MockUserRepo{
		FindByIdFunc: func(id int64) (*domain.User, error) {
			return &domain.User{ID: id, FullName: "Rob Keller"}, nil
		},
	}
	c := newTestVacationsController(&MockRequestRepo{}, &MockActionRepo{}, userRepo)

	start := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	end := time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339)
	body := fmt.Sprintf(`{"startDate":%q,"endDate":%q,"reason":"trip","replacementUserId":9}`, start, end)
	req := authenticatedRequest("POST", "/api/vacations", body, employeeUser())
	w := httptest.NewRecorder()
	c.handleSubmit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "startDate") {
		t.Errorf("Expected the failing field in the message, got %s", w.Body.String())
	}
}

func TestVacationsController_Approve_Success(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusPending), nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations/42/approve", `{"comment":"ok"}`, hrUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleApprove(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, w.Body.String())
	}
	var record domain.VacationRequest
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if record.Status != domain.StatusHRReview {
		t.Errorf("Expected hr_review, got %s", record.Status)
	}
}

func TestVacationsController_Approve_EmptyBody(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusPending), nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations/42/approve", "", hrUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleApprove(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with no body, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVacationsController_Approve_WrongTurn(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusPending), nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	manager := &domain.User{ID: 4, Username: "max", FullName: "Max Orr", Role: domain.RoleManager}
	req := authenticatedRequest("POST", "/api/vacations/42/approve", "", manager)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleApprove(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestVacationsController_Approve_Finalized(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusApproved), nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations/42/approve", "", hrUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleApprove(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestVacationsController_Approve_ConcurrentConflict(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusPending), nil
		},
		UpdateDecisionFunc: func(id int64, status domain.Status, approvals string, seenModified time.Time, newModified time.Time) (bool, error) {
			return false, nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations/42/approve", "", hrUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleApprove(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestVacationsController_Deny_WithoutComment(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusPending), nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations/42/deny", "", hrUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleDeny(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestVacationsController_Decision_NotFound(t *testing.T) {
	c := newTestVacationsController(&MockRequestRepo{}, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("POST", "/api/vacations/99/approve", "", hrUser())
	req.SetPathValue("id", "99")
	w := httptest.NewRecorder()
	c.handleApprove(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestVacationsController_List_EmployeeScopedToOwnRequests(t *testing.T) {
	var gotFilter models.RequestFilter
	requestRepo := &MockRequestRepo{
		SearchFunc: func(filter models.RequestFilter) (*[]domain.VacationRequest, error) {
			gotFilter = filter
			return &[]domain.VacationRequest{*storedRequest(domain.StatusPending)}, nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	// Trying to read someone else's requests; the filter must be forced back.
	req := authenticatedRequest("GET", "/api/vacations?employeeId=99", "", employeeUser())
	w := httptest.NewRecorder()
	c.handleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotFilter.EmployeeID != 7 {
		t.Errorf("Expected employee filter forced to 7, got %d", gotFilter.EmployeeID)
	}
}

func TestVacationsController_List_ApproverSeesAll(t *testing.T) {
	var gotFilter models.RequestFilter
	requestRepo := &MockRequestRepo{
		SearchFunc: func(filter models.RequestFilter) (*[]domain.VacationRequest, error) {
			gotFilter = filter
			return &[]domain.VacationRequest{}, nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("GET", "/api/vacations?status=pending&limit=10", "", hrUser())
	w := httptest.NewRecorder()
	c.handleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotFilter.EmployeeID != 0 {
		t.Errorf("Expected no employee restriction for approvers, got %d", gotFilter.EmployeeID)
	}
	if gotFilter.Status != domain.StatusPending || gotFilter.Limit != 10 {
		t.Errorf("Expected status and limit from the query, got %+v", gotFilter)
	}
}

func TestVacationsController_List_UnknownStatus(t *testing.T) {
	c := newTestVacationsController(&MockRequestRepo{}, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("GET", "/api/vacations?status=bogus", "", hrUser())
	w := httptest.NewRecorder()
	c.handleList(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestVacationsController_GetById_EmployeeCannotReadOthers(t *testing.T) {
	record := storedRequest(domain.StatusPending)
	record.EmployeeID = 99
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) { return record, nil },
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("GET", "/api/vacations/42", "", employeeUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleGetById(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestVacationsController_GetByExternalId(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByExternalIDFunc: func(externalID string) (*domain.VacationRequest, error) {
			if externalID == "ext-42" {
				return storedRequest(domain.StatusPending), nil
			}
			return nil, nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("GET", "/api/vacations/externalId/ext-42", "", employeeUser())
	req.SetPathValue("externalId", "ext-42")
	w := httptest.NewRecorder()
	c.handleGetByExternalId(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	req = authenticatedRequest("GET", "/api/vacations/externalId/ext-99", "", employeeUser())
	req.SetPathValue("externalId", "ext-99")
	w = httptest.NewRecorder()
	c.handleGetByExternalId(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestVacationsController_GetById_Success(t *testing.T) {
	requestRepo := &MockRequestRepo{
		FindByIDFunc: func(id int64) (*domain.VacationRequest, error) {
			return storedRequest(domain.StatusPending), nil
		},
	}
	c := newTestVacationsController(requestRepo, &MockActionRepo{}, &MockUserRepo{})

	req := authenticatedRequest("GET", "/api/vacations/42", "", employeeUser())
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	c.handleGetById(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var record domain.VacationRequest
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if record.ID != 42 {
		t.Errorf("Expected id 42, got %d", record.ID)
	}
}

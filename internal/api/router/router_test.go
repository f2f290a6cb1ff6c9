package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskbill/internal/api/util"
	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/core/service"
	"taskbill/internal/notify"
)

type testServer struct {
	*httptest.Server
	store    *repository.Store
	recorder *notify.Recorder
	users    service.UserService
}

func newTestServer(t *testing.T, autoProvision bool) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewInMemoryStore()
	recorder := &notify.Recorder{}
	opts := []service.Option{service.WithLogger(logger), service.WithEmitter(recorder)}

	memberships := service.NewMembershipService(store, opts...)
	invitations := service.NewInvitationService(store, opts...)
	users := service.NewUserService(store, opts...)
	handler := NewRouter(Dependencies{
		Memberships:   memberships,
		Invitations:   invitations,
		Approvals:     service.NewApprovalService(store, invitations, memberships, opts...),
		Organizations: service.NewOrganizationService(store, memberships, opts...),
		Provisioning:  service.NewProvisioningService(store, memberships, opts...),
		Projects:      service.NewProjectService(store, opts...),
		Tasks:         service.NewTaskService(store, opts...),
		Users:         users,
		JWT:           util.NewJWTService("test-secret", time.Hour),
		AutoProvision: autoProvision,
		Logger:        logger,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, recorder: recorder, users: users}
}

// do sends a JSON request and decodes the JSON response into out.
func (s *testServer) do(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("Failed to send %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	status := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password}, &resp)
	if status != http.StatusOK || resp.AccessToken == "" {
		t.Fatalf("login as %s returned %d", email, status)
	}
	return resp.AccessToken
}

func (s *testServer) register(t *testing.T, req service.RegistrationRequest) (int, map[string]interface{}) {
	t.Helper()
	var out map[string]interface{}
	status := s.do(t, http.MethodPost, "/api/auth/register", "", req, &out)
	return status, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false)
	var out map[string]string
	if status := srv.do(t, http.MethodGet, "/health", "", nil, &out); status != http.StatusOK || out["status"] != "ok" {
		t.Errorf("GET /health = %d %v", status, out)
	}
}

func TestAuthenticationRequired(t *testing.T) {
	srv := newTestServer(t, false)
	var out util.ErrorResponse
	if status := srv.do(t, http.MethodGet, "/api/me", "", nil, &out); status != http.StatusUnauthorized {
		t.Errorf("GET /api/me without token = %d, want 401", status)
	}
	if status := srv.do(t, http.MethodGet, "/api/me", "garbage", nil, &out); status != http.StatusUnauthorized {
		t.Errorf("GET /api/me with bad token = %d, want 401", status)
	}
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, false)
	if _, err := srv.users.EnsureOwner(ctx, "owner@example.com", "owner-password", "Owner"); err != nil {
		t.Fatalf("Failed to bootstrap owner: %v", err)
	}
	ownerToken := srv.login(t, "owner@example.com", "owner-password")

	var org model.Organization
	if status := srv.do(t, http.MethodPost, "/api/organizations", ownerToken, map[string]string{"name": "Acme"}, &org); status != http.StatusCreated {
		t.Fatalf("create organization = %d", status)
	}

	var link model.InvitationLink
	status := srv.do(t, http.MethodPost, "/api/organizations/"+org.ID+"/invitations", ownerToken,
		map[string]interface{}{"role": "lead", "maxUses": 1}, &link)
	if status != http.StatusCreated {
		t.Fatalf("issue invitation = %d", status)
	}

	var v service.Validation
	if status := srv.do(t, http.MethodGet, "/api/invitations/"+link.Token, "", nil, &v); status != http.StatusOK || !v.Valid {
		t.Fatalf("validate invitation = %d %+v", status, v)
	}

	status, _ = srv.register(t, service.RegistrationRequest{Email: "lead@example.com", Password: "lead-password", InvitationToken: link.Token})
	if status != http.StatusCreated {
		t.Fatalf("register with invitation = %d", status)
	}

	var errResp util.ErrorResponse
	status = srv.do(t, http.MethodPost, "/api/auth/register", "",
		service.RegistrationRequest{Email: "late@example.com", Password: "late-password", InvitationToken: link.Token}, &errResp)
	if status != http.StatusGone || errResp.Reason != model.ReasonExhausted {
		t.Errorf("register with used invitation = %d %+v, want 410 exhausted", status, errResp)
	}

	leadToken := srv.login(t, "lead@example.com", "lead-password")
	var project model.Project
	if status := srv.do(t, http.MethodPost, "/api/organizations/"+org.ID+"/projects", leadToken, map[string]string{"name": "Website"}, &project); status != http.StatusCreated {
		t.Fatalf("lead create project = %d", status)
	}

	var projects []model.Project
	if status := srv.do(t, http.MethodGet, "/api/projects?organizationId="+org.ID, leadToken, nil, &projects); status != http.StatusOK || len(projects) != 1 {
		t.Errorf("list projects = %d with %d results, want 1", status, len(projects))
	}
	if status := srv.do(t, http.MethodGet, "/api/projects?organizationId=elsewhere", leadToken, nil, &projects); status != http.StatusOK || len(projects) != 0 {
		t.Errorf("list projects in foreign org = %d with %d results, want 0", status, len(projects))
	}

	if status := srv.do(t, http.MethodDelete, "/api/organizations/"+org.ID, ownerToken, nil, &errResp); status != http.StatusConflict {
		t.Errorf("delete organization with dependents = %d, want 409", status)
	}
}

func TestPendingAccountOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, false)
	if _, err := srv.users.EnsureOwner(ctx, "owner@example.com", "owner-password", "Owner"); err != nil {
		t.Fatalf("Failed to bootstrap owner: %v", err)
	}

	status, body := srv.register(t, service.RegistrationRequest{Email: "admin@example.com", Password: "admin-password", Role: "org-admin"})
	if status != http.StatusCreated {
		t.Fatalf("register org-admin = %d", status)
	}
	user := body["user"].(map[string]interface{})
	if user["isApproved"] != false {
		t.Fatalf("self-registered org-admin approved: %v", user)
	}

	token := srv.login(t, "admin@example.com", "admin-password")
	var errResp util.ErrorResponse
	status = srv.do(t, http.MethodPost, "/api/organizations", token, map[string]string{"name": "Mine"}, &errResp)
	if status != http.StatusForbidden || errResp.Code != "account-pending-approval" {
		t.Errorf("pending create organization = %d %+v, want 403 pending", status, errResp)
	}

	ownerToken := srv.login(t, "owner@example.com", "owner-password")
	if status := srv.do(t, http.MethodPost, "/api/users/"+user["id"].(string)+"/approve", ownerToken, nil, nil); status != http.StatusOK {
		t.Fatalf("approve = %d", status)
	}
	if got := len(srv.recorder.Of(notify.KindApprovalGranted)); got != 1 {
		t.Errorf("approval-granted intents = %d, want 1", got)
	}

	var org model.Organization
	if status := srv.do(t, http.MethodPost, "/api/organizations", token, map[string]string{"name": "Mine"}, &org); status != http.StatusCreated {
		t.Errorf("approved create organization = %d, want 201", status)
	}
}

func TestAutoProvisionOnRegister(t *testing.T) {
	srv := newTestServer(t, true)
	status, body := srv.register(t, service.RegistrationRequest{Email: "solo@example.com", Password: "solo-password", Name: "Solo"})
	if status != http.StatusCreated {
		t.Fatalf("register = %d", status)
	}
	if body["organization"] == nil || body["needsOrganization"] != false {
		t.Errorf("register response = %v, want a provisioned organization", body)
	}
}

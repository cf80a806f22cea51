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

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"user-account-service/internal/core/i18n"
	"user-account-service/internal/domain"
	"user-account-service/internal/repo"
	"user-account-service/internal/service"
	"user-account-service/pkg/utils"
)

// ---- helpers ----

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "digest:" + pw, nil }

// brokenService 每次调用都返回未分类错误
type brokenService struct{ *service.UserService }

func (brokenService) FindByID(context.Context, uint64) (*domain.User, error) {
	return nil, errors.New("pq: connection refused to 10.0.0.5")
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, svc UserService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}
	tr, err := i18n.New("")
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	r := gin.New()
	NewUserHandler(svc, tr, nil).MountAPI(r.Group("/api/v1"))
	return r
}

func newMemoryRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestRouter(t, service.NewUserService(repo.NewMemoryUserRepo(), fakeHasher{}, nil))
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func createUser(t *testing.T, r *gin.Engine, name, email string) uint64 {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/v1/users", map[string]string{
		"name": name, "email": email, "password": "password1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s: expected 201, got %d: %s", email, w.Code, w.Body.String())
	}
	var out createUserOut
	if err := json.Unmarshal(decode(t, w).Data, &out); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	return out.ID
}

// ---- create ----

func TestCreateUser_Success(t *testing.T) {
	r := newMemoryRouter(t)
	id := createUser(t, r, "Deep", "deep@example.com")
	if id == 0 {
		t.Fatal("expected an id")
	}

	w := doRequest(r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "digest:") {
		t.Fatal("password digest must not be rendered")
	}
	var u UserDetails
	_ = json.Unmarshal(decode(t, w).Data, &u)
	if u.Name != "Deep" || u.Email != "deep@example.com" || u.Version != 0 {
		t.Fatalf("unexpected details: %+v", u)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	r := newMemoryRouter(t)
	cases := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"blank name", map[string]string{"name": "", "email": "test@gmail.com", "password": "password"}, "Name is mandatory"},
		{"invalid name", map[string]string{"name": "Deep*", "email": "test@gmail.com", "password": "password"}, "Name can only contain letters and spaces"},
		{"long name", map[string]string{"name": strings.Repeat("e", 51), "email": "test@gmail.com", "password": "password"}, "Name must be at most 50 characters"},
		{"blank email", map[string]string{"name": "Deep", "email": "", "password": "password"}, "Email is mandatory"},
		{"invalid email", map[string]string{"name": "Deep", "email": "test@", "password": "password"}, "Email format is invalid"},
		{"blank password", map[string]string{"name": "Deep", "email": "test@gmail.com", "password": ""}, "Password is mandatory"},
		{"short password", map[string]string{"name": "Deep", "email": "test@gmail.com", "password": "pass"}, "Password must be at least 8 characters"},
		{"password format", map[string]string{"name": "Deep", "email": "test@gmail.com", "password": "password$$"}, "Password can only contain letters and digits"},
		{"long password", map[string]string{"name": "Deep", "email": "test@gmail.com", "password": strings.Repeat("a", 80)}, "Password must be at most 72 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/users", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if env := decode(t, w); env.Msg != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, env.Msg)
			}
		})
	}
}

func TestCreateUser_MultipleErrorsJoined(t *testing.T) {
	r := newMemoryRouter(t)
	w := doRequest(r, http.MethodPost, "/api/v1/users", map[string]string{
		"name": "", "email": "bad", "password": "password1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decode(t, w); env.Msg != "Name is mandatory,Email format is invalid" {
		t.Fatalf("unexpected message: %q", env.Msg)
	}
}

func TestCreateUser_MalformedJSON(t *testing.T) {
	r := newMemoryRouter(t)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decode(t, w); env.Msg != "Malformed request" {
		t.Fatalf("unexpected message: %q", env.Msg)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r := newMemoryRouter(t)
	createUser(t, r, "Deep", "deep@example.com")

	w := doRequest(r, http.MethodPost, "/api/v1/users", map[string]string{
		"name": "Other", "email": "deep@example.com", "password": "password1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decode(t, w); env.Msg != "Email is already registered" {
		t.Fatalf("unexpected message: %q", env.Msg)
	}
}

// ---- get / list ----

func TestGetUser_NotFound(t *testing.T) {
	r := newMemoryRouter(t)
	w := doRequest(r, http.MethodGet, "/api/v1/users/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if env := decode(t, w); env.Code != http.StatusNotFound || env.Msg != "User does not exist" {
		t.Fatalf("unexpected body: %+v", env)
	}
}

func TestGetUser_BadID(t *testing.T) {
	r := newMemoryRouter(t)
	w := doRequest(r, http.MethodGet, "/api/v1/users/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetUser_InternalErrorHidesCause(t *testing.T) {
	r := newTestRouter(t, brokenService{})
	w := doRequest(r, http.MethodGet, "/api/v1/users/1", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Msg != "Internal Server Error" || strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Fatalf("internal details leaked: %s", w.Body.String())
	}
}

func TestListUsers(t *testing.T) {
	r := newMemoryRouter(t)
	for i := 0; i < 25; i++ {
		createUser(t, r, "User", fmt.Sprintf("u%02d@x.com", i))
	}

	type page struct {
		Records      []UserDetails `json:"records"`
		PageNumber   int           `json:"pageNumber"`
		PageSize     int           `json:"pageSize"`
		TotalRecords int64         `json:"totalRecords"`
		TotalPages   int           `json:"totalPages"`
	}

	// page 缺省为 1
	w := doRequest(r, http.MethodGet, "/api/v1/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var p page
	_ = json.Unmarshal(decode(t, w).Data, &p)
	if len(p.Records) != 10 || p.PageNumber != 1 || p.PageSize != 10 || p.TotalRecords != 25 || p.TotalPages != 3 {
		t.Fatalf("unexpected first page: %+v", p)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/users?page=3", nil)
	p = page{}
	_ = json.Unmarshal(decode(t, w).Data, &p)
	if len(p.Records) != 5 || p.PageNumber != 3 {
		t.Fatalf("unexpected third page: %+v", p)
	}
}

func TestListUsers_InvalidPage(t *testing.T) {
	r := newMemoryRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/users?page=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decode(t, w); env.Msg != "Invalid page number. Must be minimum 1" {
		t.Fatalf("unexpected message: %q", env.Msg)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/users?page=x", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// ---- mutate ----

func TestChangePassword(t *testing.T) {
	r := newMemoryRouter(t)
	id := createUser(t, r, "Deep", "deep@example.com")

	w := doRequest(r, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", id), map[string]string{"password": "newpassword1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	var u UserDetails
	_ = json.Unmarshal(decode(t, w).Data, &u)
	if u.Version != 1 {
		t.Fatalf("expected version 1, got %d", u.Version)
	}

	w = doRequest(r, http.MethodPatch, "/api/v1/users/999", map[string]string{"password": "newpassword1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", id), map[string]string{"password": "short"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", id), map[string]string{"password": strings.Repeat("b", 73)})
	if w.Code != http.StatusBadRequest || decode(t, w).Msg != "Password must be at most 72 characters" {
		t.Fatalf("expected 400 for 73-char password, got %d %s", w.Code, w.Body.String())
	}
}

// 72 字符是 bcrypt 的上限，真实 hasher 下必须能创建和改密
func TestPasswordLengthBoundary_RealHasher(t *testing.T) {
	svc := service.NewUserService(repo.NewMemoryUserRepo(), utils.NewBcryptHasher(bcrypt.MinCost), nil)
	r := newTestRouter(t, svc)

	w := doRequest(r, http.MethodPost, "/api/v1/users", map[string]string{
		"name": "Deep", "email": "deep@x.io", "password": strings.Repeat("a", 72),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for 72-char password, got %d %s", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodPatch, "/api/v1/users/1", map[string]string{"password": strings.Repeat("b", 72)})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for 72-char password change, got %d %s", w.Code, w.Body.String())
	}
}

func TestUpdateUser(t *testing.T) {
	r := newMemoryRouter(t)
	a := createUser(t, r, "Alice", "a@x.com")
	createUser(t, r, "Bob", "b@x.com")

	w := doRequest(r, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", a), map[string]string{"name": "Alice", "email": "b@x.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken email, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", a), map[string]string{"name": "Alice Smith", "email": "alice@x.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var u UserDetails
	_ = json.Unmarshal(decode(t, w).Data, &u)
	if u.ID != a || u.Name != "Alice Smith" || u.Email != "alice@x.com" || u.Version != 1 {
		t.Fatalf("unexpected details: %+v", u)
	}

	w = doRequest(r, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", a), map[string]string{"name": "Alice 2", "email": "alice@x.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid name, got %d", w.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	r := newMemoryRouter(t)
	id := createUser(t, r, "Deep", "deep@example.com")

	w := doRequest(r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doRequest(r, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", id), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// ---- conflict ----

type conflictService struct{ *service.UserService }

func (conflictService) UpdateUser(context.Context, uint64, string, string) (*domain.User, error) {
	return nil, domain.Conflict(domain.MsgConcurrentModification)
}

func TestUpdateUser_Conflict(t *testing.T) {
	r := newTestRouter(t, conflictService{})
	w := doRequest(r, http.MethodPut, "/api/v1/users/1", map[string]string{"name": "Deep", "email": "deep@example.com"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if env := decode(t, w); env.Msg != "The user was modified by another request, please retry" {
		t.Fatalf("unexpected message: %q", env.Msg)
	}
}

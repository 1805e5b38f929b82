package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campus-blog/internal/shared/model"
)

func newTestHandler(store UserStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(store, testConfig()).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if user != nil {
		r = r.WithContext(WithAuthUser(r.Context(), user))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestRegister(t *testing.T) {
	store := newFakeUserStore()
	mux := newTestHandler(store)

	body := `{"first_name":"Alice","last_name":"Lee","username":"alice","email":"Alice@Example.EDU","password":"secret1"}`
	w := doJSON(t, mux, "POST", "/api/v1/auth/register", body, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		User  *model.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected non-empty token")
	}
	// 邮箱统一小写存储
	if resp.User.Email != "alice@example.edu" {
		t.Errorf("email = %q, want normalized lowercase", resp.User.Email)
	}
	// 角色强制为 user
	if resp.User.Role != model.UserRoleUser {
		t.Errorf("role = %q, want %q", resp.User.Role, model.UserRoleUser)
	}
	// 密码哈希永不出现在响应中
	if strings.Contains(w.Body.String(), "secret1") || strings.Contains(w.Body.String(), "password_hash") {
		t.Error("response leaks password material")
	}
}

func TestRegisterValidation(t *testing.T) {
	mux := newTestHandler(newFakeUserStore())

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"email":"a@b.edu"}`},
		{"bad email", `{"first_name":"A","last_name":"B","username":"ab","email":"not-an-email","password":"secret1"}`},
		{"short password", `{"first_name":"A","last_name":"B","username":"ab","email":"a@b.edu","password":"123"}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, "POST", "/api/v1/auth/register", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	existing := &model.User{ID: "usr-001", Username: "alice", Email: "alice@example.edu"}
	mux := newTestHandler(newFakeUserStore(existing))

	// 邮箱重复
	body := `{"first_name":"A","last_name":"B","username":"alice2","email":"alice@example.edu","password":"secret1"}`
	w := doJSON(t, mux, "POST", "/api/v1/auth/register", body, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	// 用户名重复
	body = `{"first_name":"A","last_name":"B","username":"alice","email":"new@example.edu","password":"secret1"}`
	w = doJSON(t, mux, "POST", "/api/v1/auth/register", body, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatal(err)
	}
	user := &model.User{ID: "usr-001", Username: "alice", Email: "alice@example.edu", PasswordHash: hash, Role: model.UserRoleUser}
	mux := newTestHandler(newFakeUserStore(user))

	// 正确凭据（邮箱大小写不敏感）
	w := doJSON(t, mux, "POST", "/api/v1/auth/login", `{"email":"Alice@Example.edu","password":"secret1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	// 错误密码
	w = doJSON(t, mux, "POST", "/api/v1/auth/login", `{"email":"alice@example.edu","password":"wrong"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 不存在的用户：与错误密码同样的响应，不泄露账号是否存在
	w = doJSON(t, mux, "POST", "/api/v1/auth/login", `{"email":"ghost@example.edu","password":"secret1"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestProfile(t *testing.T) {
	user := &model.User{ID: "usr-001", Username: "alice", Email: "alice@example.edu"}
	mux := newTestHandler(newFakeUserStore(user))

	w := doJSON(t, mux, "GET", "/api/v1/auth/profile", "", user)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got model.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Errorf("id = %q, want %q", got.ID, user.ID)
	}
}

func TestChangePassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatal(err)
	}
	user := &model.User{ID: "usr-001", Username: "alice", Email: "alice@example.edu", PasswordHash: hash}
	store := newFakeUserStore(user)
	mux := newTestHandler(store)

	// 当前密码错误
	w := doJSON(t, mux, "PUT", "/api/v1/auth/password", `{"current_password":"wrong","new_password":"secret2"}`, user)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 新密码太短
	w = doJSON(t, mux, "PUT", "/api/v1/auth/password", `{"current_password":"secret1","new_password":"short"}`, user)
	if w.Code != http.StatusBadRequest {
		t.Errorf("short new password: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	// 缺字段
	w = doJSON(t, mux, "PUT", "/api/v1/auth/password", `{"new_password":"secret2"}`, user)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing current password: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	// 修改成功，旧密码失效、新密码生效
	w = doJSON(t, mux, "PUT", "/api/v1/auth/password", `{"current_password":"secret1","new_password":"secret2"}`, user)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if CheckPassword("secret1", user.PasswordHash) {
		t.Error("old password still accepted after change")
	}
	if !CheckPassword("secret2", user.PasswordHash) {
		t.Error("new password not accepted after change")
	}
}

func TestUpdateRole(t *testing.T) {
	admin := &model.User{ID: "usr-adm", Role: model.UserRoleAdmin}
	user := &model.User{ID: "usr-001", Username: "alice", Email: "alice@example.edu", Role: model.UserRoleUser}
	store := newFakeUserStore(admin, user)
	mux := newTestHandler(store)

	w := doJSON(t, mux, "PUT", "/api/v1/auth/users/usr-001/role", `{"role":"admin"}`, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if user.Role != model.UserRoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}

	// 非法角色
	w = doJSON(t, mux, "PUT", "/api/v1/auth/users/usr-001/role", `{"role":"superuser"}`, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	// 非管理员（此时 alice 已是 admin，换 bob 验证拒绝）
	bob := &model.User{ID: "usr-002", Role: model.UserRoleUser}
	w = doJSON(t, mux, "PUT", "/api/v1/auth/users/usr-adm/role", `{"role":"user"}`, bob)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestEnsureAdminUser(t *testing.T) {
	store := newFakeUserStore()

	// 创建新管理员
	if err := EnsureAdminUser(store, "admin@example.edu", "secret1"); err != nil {
		t.Fatalf("EnsureAdminUser() error = %v", err)
	}
	admin, _ := store.GetUserByEmail(context.Background(), "admin@example.edu")
	if admin == nil || admin.Role != model.UserRoleAdmin {
		t.Fatalf("admin user not created, got %+v", admin)
	}

	// 幂等
	if err := EnsureAdminUser(store, "admin@example.edu", "secret1"); err != nil {
		t.Fatalf("EnsureAdminUser() second call error = %v", err)
	}

	// 已存在的普通用户升级为管理员
	regular := &model.User{ID: "usr-001", Email: "lead@example.edu", Role: model.UserRoleUser}
	store.users[regular.ID] = regular
	if err := EnsureAdminUser(store, "lead@example.edu", "secret1"); err != nil {
		t.Fatalf("EnsureAdminUser() upgrade error = %v", err)
	}
	if regular.Role != model.UserRoleAdmin {
		t.Errorf("role = %q, want admin", regular.Role)
	}

	// 未配置时为 no-op
	if err := EnsureAdminUser(store, "", ""); err != nil {
		t.Fatalf("EnsureAdminUser() with empty config error = %v", err)
	}
}

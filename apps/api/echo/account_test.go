package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/luminastudy/lumina/core/account"
	"github.com/luminastudy/lumina/core/session"
	testutil "github.com/luminastudy/lumina/tests"
)

const (
	adminEmail     = "ahmedokovic@gmail.com"
	moderatorEmail = "imacow47@gmail.com"
)

func Test_accountAPI_login(t *testing.T) {
	ta := setup(t)
	testutil.CreateAccount(t, ta.directory, "Banned", "banned@test.cd", account.RoleUser, false)

	tests := []httpTest{
		{
			name: "empty body", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "invalid email", body: marchallObj(t, LoginRequest{Email: "nope", Password: "x"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "disabled account", body: marchallObj(t, LoginRequest{Email: "banned@test.cd", Password: "x"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: session.ErrAccountDisabled.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/login", tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("seeded account", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/login", marchallObj(t, LoginRequest{Email: adminEmail, Password: "x"}))
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("login code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		resp := decodeTokenResponse(t, rec)
		if resp.Token == "" {
			t.Error("login returned an empty token")
		}
		if resp.Account.Role != account.RoleAdmin {
			t.Errorf("login role = %v; want %v", resp.Account.Role, account.RoleAdmin)
		}
	})

	t.Run("unseen email is provisioned", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/login", marchallObj(t, LoginRequest{Email: "New.Face@Test.CD", Password: "x"}))
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("login code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		resp := decodeTokenResponse(t, rec)
		if resp.Account.Email != "new.face@test.cd" || resp.Account.Name != "new.face" {
			t.Errorf("login account = %v/%v; want new.face@test.cd/new.face", resp.Account.Email, resp.Account.Name)
		}
		if resp.Account.Role != account.RoleUser {
			t.Errorf("login role = %v; want %v", resp.Account.Role, account.RoleUser)
		}
	})
}

func Test_accountAPI_register(t *testing.T) {
	ta := setup(t)
	testutil.CreateAccount(t, ta.directory, "User", "taken@test.cd", account.RoleUser, true)

	tests := []httpTest{
		{
			name: "empty body", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"name":     "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "duplicate email",
			body:     marchallObj(t, account.NewAccount{Email: "Taken@Test.CD", Name: "Imposter", Password: "x"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": account.ErrEmailExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/register", tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("new account", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/register",
			marchallObj(t, account.NewAccount{Email: "jane@test.cd", Name: "Jane Doe", Password: "x"}))
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("register code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		resp := decodeTokenResponse(t, rec)
		if resp.Token == "" {
			t.Error("register returned an empty token")
		}
		if resp.Account.Name != "Jane Doe" {
			t.Errorf("register name = %v; want Jane Doe", resp.Account.Name)
		}
		if _, err := ta.directory.FindByEmail("jane@test.cd"); err != nil {
			t.Errorf("FindByEmail() failed after register: %v", err)
		}
	})
}

func Test_accountAPI_me(t *testing.T) {
	ta := setup(t)
	acct, token := ta.login(t, "someone@test.cd")

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, acct)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/me", tt.token)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_accountAPI_updateProfile(t *testing.T) {
	ta := setup(t)
	acct, token := ta.login(t, "someone@test.cd")

	t.Run("validation", func(t *testing.T) {
		tt := httpTest{
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":                "this field is required",
				"study_hours_per_day": "this field is required",
			}),
		}
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/me", token, tt.body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, account.UpdateProfile{Name: "Renamed", StudyHoursPerDay: 6})
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/me", token, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("updateProfile code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var got account.Account
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		if got.Name != "Renamed" || got.StudyHoursPerDay != 6 {
			t.Errorf("updateProfile = %v/%v; want Renamed/6", got.Name, got.StudyHoursPerDay)
		}
		if rec, _ := ta.directory.Get(acct.ID); rec.Name != "Renamed" {
			t.Errorf("directory name = %v; want Renamed", rec.Name)
		}
	})
}

func Test_accountAPI_premium(t *testing.T) {
	ta := setup(t)
	acct, token := ta.login(t, "someone@test.cd")

	t.Run("upgrade", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/me/premium", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("upgrade code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if rec, _ := ta.directory.Get(acct.ID); rec.Role != account.RolePremium {
			t.Errorf("directory role = %v; want %v", rec.Role, account.RolePremium)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/me/premium", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("cancel code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if rec, _ := ta.directory.Get(acct.ID); rec.Role != account.RoleUser {
			t.Errorf("directory role = %v; want %v", rec.Role, account.RoleUser)
		}
	})
}

func Test_accountAPI_logout(t *testing.T) {
	ta := setup(t)
	_, token := ta.login(t, "someone@test.cd")

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/logout", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout code = %v; want %v: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	if _, ok := ta.session.Current(); ok {
		t.Error("Current() returned an account after logout")
	}
}

func Test_accountAPI_query(t *testing.T) {
	ta := setup(t)

	_, userToken := ta.login(t, "someone@test.cd")
	_, modToken := ta.login(t, moderatorEmail)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/accounts")
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("under-privileged goes to dashboard", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts", userToken)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("query code = %v; want %v", rec.Code, http.StatusSeeOther)
		}
		if loc := rec.Header().Get("Location"); loc != dashboardPath {
			t.Errorf("redirect location = %v; want %v", loc, dashboardPath)
		}
	})

	t.Run("moderator lists everyone", func(t *testing.T) {
		accounts, err := ta.directory.All()
		if err != nil {
			t.Fatalf("All() failed: %v", err)
		}
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, accounts)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts", modToken)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_accountAPI_setRole(t *testing.T) {
	ta := setup(t)
	target := testutil.CreateAccount(t, ta.directory, "Target", "target@test.cd", account.RoleUser, true)

	t.Run("moderator token goes to dashboard", func(t *testing.T) {
		_, modToken := ta.login(t, moderatorEmail)
		body := marchallObj(t, SetRoleRequest{Role: account.RoleModerator})
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/"+target.ID+"/role", modToken, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("setRole code = %v; want %v", rec.Code, http.StatusSeeOther)
		}
	})

	_, adminToken := ta.login(t, adminEmail)

	tests := []httpTest{
		{
			name: "invalid role", token: adminToken, path: "/v1/accounts/" + target.ID + "/role",
			body: []byte(`{"role": "overlord"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "unknown target", token: adminToken, path: "/v1/accounts/nope/role",
			body: marchallObj(t, SetRoleRequest{Role: account.RoleModerator}), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: account.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("admin promotes", func(t *testing.T) {
		body := marchallObj(t, SetRoleRequest{Role: account.RoleModerator})
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/"+target.ID+"/role", adminToken, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("setRole code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if rec, _ := ta.directory.Get(target.ID); rec.Role != account.RoleModerator {
			t.Errorf("directory role = %v; want %v", rec.Role, account.RoleModerator)
		}
	})
}

// A stale admin token is not enough: the directory re-checks the live
// session's role before a privileged mutation.
func Test_accountAPI_setRole_staleToken(t *testing.T) {
	ta := setup(t)
	target := testutil.CreateAccount(t, ta.directory, "Target", "target@test.cd", account.RoleUser, true)

	_, adminToken := ta.login(t, adminEmail)
	// session moves on to an unprivileged account; the old token is still valid
	ta.login(t, "someone@test.cd")

	body := marchallObj(t, SetRoleRequest{Role: account.RoleAdmin})
	req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/"+target.ID+"/role", adminToken, body)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("setRole code = %v; want %v: %s", rec.Code, http.StatusForbidden, rec.Body.String())
	}
	if rec, _ := ta.directory.Get(target.ID); rec.Role != account.RoleUser {
		t.Errorf("directory role = %v; stale token must not mutate", rec.Role)
	}
}

func Test_accountAPI_toggleStatus(t *testing.T) {
	ta := setup(t)
	target := testutil.CreateAccount(t, ta.directory, "Target", "target@test.cd", account.RoleUser, true)
	_, adminToken := ta.login(t, adminEmail)

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/"+target.ID+"/toggle-status", adminToken)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggleStatus code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec, _ := ta.directory.Get(target.ID); rec.Status != account.StatusDisabled {
		t.Errorf("directory status = %v; want %v", rec.Status, account.StatusDisabled)
	}
}

func Test_accountAPI_toggleFlag(t *testing.T) {
	ta := setup(t)
	target := testutil.CreateAccount(t, ta.directory, "Target", "target@test.cd", account.RoleUser, true)
	_, modToken := ta.login(t, moderatorEmail)

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/"+target.ID+"/toggle-flag", modToken)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggleFlag code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec, _ := ta.directory.Get(target.ID); !rec.IsFlagged {
		t.Error("directory record not flagged")
	}
}

func Test_accountAPI_refreshToken(t *testing.T) {
	ta := setup(t)
	acct, token := ta.login(t, "someone@test.cd")

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/token-refresh", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeTokenResponse(t, rec)
	if resp.Token == "" {
		t.Error("refresh returned an empty token")
	}
	if resp.Account.ID != acct.ID {
		t.Errorf("refresh account = %v; want %v", resp.Account.ID, acct.ID)
	}
}

func Test_accountAPI_refreshToken_disabledAccount(t *testing.T) {
	ta := setup(t)
	acct, token := ta.login(t, "someone@test.cd")
	if _, err := ta.directory.ToggleStatus(account.RoleAdmin, acct.ID); err != nil {
		t.Fatalf("ToggleStatus() failed: %v", err)
	}

	tt := httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: session.ErrAccountDisabled.Error()}),
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/token-refresh", token)
	ta.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

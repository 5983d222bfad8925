package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_userApi_login(t *testing.T) {
	db.Reset()

	testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "PassW0rd!", user.RoleStudent, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "PassW0rd!", user.RoleStudent, false)

	tests := []httpTest{
		{name: "empty body", method: http.MethodPost, path: "/api/auth/login", wantCode: http.StatusBadRequest},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/auth/login",
			body:     marchallObj(t, map[string]string{"username": "lol", "password": "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body:     marchallObj(t, map[string]string{"username": "alice", "password": "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/api/auth/login",
			body:     marchallObj(t, map[string]string{"username": "ndog", "password": "PassW0rd!"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username", method: http.MethodPost, path: "/api/auth/login",
			body: marchallObj(t, map[string]string{"username": "alice", "password": "PassW0rd!"}),
		},
		{
			name: "login with email", method: http.MethodPost, path: "/api/auth/login",
			body: marchallObj(t, map[string]string{"username": "alice@test.cd", "password": "PassW0rd!"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == 0 { // success; a token must be issued
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token")
				}
			}
		})
	}
}

func Test_userApi_forgotPassword(t *testing.T) {
	db.Reset()

	testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "OldPassW0rd!", user.RoleStudent, true)

	body := func(uname, email, pwd string) []byte {
		return marchallObj(t, map[string]string{
			"username":         uname,
			"email":            email,
			"new_password":     pwd,
			"password_confirm": pwd,
		})
	}

	tests := []httpTest{
		{
			name: "mismatched pair", method: http.MethodPost, path: "/api/auth/forgot-password",
			body:     body("alice", "someoneelse@test.cd", "NewPassW0rd!"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "username and email combination not found"}),
		},
		{
			name: "confirm mismatch", method: http.MethodPost, path: "/api/auth/forgot-password",
			body: marchallObj(t, map[string]string{
				"username": "alice", "email": "alice@test.cd",
				"new_password": "NewPassW0rd!", "password_confirm": "other",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "matching pair resets", method: http.MethodPost, path: "/api/auth/forgot-password",
			body:     body("alice", "alice@test.cd", "NewPassW0rd!"),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the new password must now verify; the old one must not
	usr, err := usrRepo.GetUser(newCtx(), user.GetFilter{Username: "alice"})
	if err != nil {
		t.Fatalf("GetUser(): %v", err)
	}
	if err := usr.CheckPassword("NewPassW0rd!"); err != nil {
		t.Error("new password does not verify")
	}
	if err := usr.CheckPassword("OldPassW0rd!"); err == nil {
		t.Error("old password still verifies")
	}
}

func Test_userApi_account(t *testing.T) {
	db.Reset()

	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "PassW0rd!", user.RoleStudent, true)
	aliceToken := getToken(t, alice)

	tests := []httpTest{
		{name: "auth required", path: "/api/account", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own profile", path: "/api/account", token: aliceToken, wantData: marchallObj(t, alice)},
		{
			name: "update profile", method: http.MethodPut, path: "/api/account", token: aliceToken,
			body: marchallObj(t, map[string]string{"name": "Alice Mwangi"}),
		},
		{
			name: "wrong current password", method: http.MethodPut, path: "/api/account/password", token: aliceToken,
			body: marchallObj(t, map[string]string{
				"current_password": "lol", "new_password": "NewPassW0rd!", "password_confirm": "NewPassW0rd!",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "change password", method: http.MethodPut, path: "/api/account/password", token: aliceToken,
			body: marchallObj(t, map[string]string{
				"current_password": "PassW0rd!", "new_password": "NewPassW0rd!", "password_confirm": "NewPassW0rd!",
			}),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been changed."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	usr, err := usrRepo.GetUser(newCtx(), user.GetFilter{ID: alice.ID})
	if err != nil {
		t.Fatalf("GetUser(): %v", err)
	}
	if usr.Name != "Alice Mwangi" {
		t.Errorf("Name = %q; want %q", usr.Name, "Alice Mwangi")
	}
	if err := usr.CheckPassword("NewPassW0rd!"); err != nil {
		t.Error("new password does not verify")
	}
}

func Test_userApi_students(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob K", "bobby", "bob@test.cd", "", user.RoleStudent, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", user.RoleStudent, false)

	adminToken := getToken(t, admin)
	aliceToken := getToken(t, alice)

	path := func(search string, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			if *isActive {
				v.Add("is_active", "true")
			} else {
				v.Add("is_active", "false")
			}
		}
		return "/api/students?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	tests := []httpTest{
		{name: "auth required", path: "/api/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/api/students", token: aliceToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		// admins are not listed as students
		{name: "get all", path: "/api/students", token: adminToken, wantData: marchallList(t, alice, bob, naughty)},
		{name: "ordering=-name", path: "/api/students?ordering=-name", token: adminToken, wantData: marchallList(t, naughty, bob, alice)},
		// unknown ordering fields never reach the query; default order applies
		{
			name: "ordering (unknown field)", path: "/api/students?ordering=password_hash%3BDROP+TABLE", token: adminToken,
			wantData: marchallList(t, alice, bob, naughty),
		},
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: marchallList(t)},
		{name: "search=ali", path: path("ali", nil), token: adminToken, wantData: marchallList(t, alice)},
		{name: "is_active=true", path: path("", bPtr(true)), token: adminToken, wantData: marchallList(t, alice, bob)},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "create student", method: http.MethodPost, path: "/api/students", token: adminToken,
			body: marchallObj(t, map[string]string{
				"name": "Carol W", "username": "carol", "email": "carol@test.cd",
				"password": "PassW0rd!", "password_confirm": "PassW0rd!",
			}),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate username", method: http.MethodPost, path: "/api/students", token: adminToken,
			body: marchallObj(t, map[string]string{
				"name": "Carol Clone", "username": "carol", "email": "carol2@test.cd",
				"password": "PassW0rd!", "password_confirm": "PassW0rd!",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/api/students", token: adminToken,
			body: marchallObj(t, map[string]string{
				"name": "Carol Clone", "username": "carol2", "email": "carol@test.cd",
				"password": "PassW0rd!", "password_confirm": "PassW0rd!",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "deactivate student", method: http.MethodPut, path: "/api/students/" + bob.ID + "/active", token: adminToken,
			body: marchallObj(t, map[string]interface{}{"is_active": false}),
		},
		{
			name: "toggle missing body", method: http.MethodPut, path: "/api/students/" + bob.ID + "/active", token: adminToken,
			body: marchallObj(t, map[string]interface{}{}), wantCode: http.StatusBadRequest,
		},
		{
			name: "toggle admin account", method: http.MethodPut, path: "/api/students/" + admin.ID + "/active", token: adminToken,
			body:     marchallObj(t, map[string]interface{}{"is_active": false}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "toggle unknown student", method: http.MethodPut, path: "/api/students/lol/active", token: adminToken,
			body:     marchallObj(t, map[string]interface{}{"is_active": false}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	usr, err := usrRepo.GetUser(newCtx(), user.GetFilter{ID: bob.ID})
	if err != nil {
		t.Fatalf("GetUser(): %v", err)
	}
	if usr.Active() {
		t.Error("expected bob to be deactivated")
	}
}

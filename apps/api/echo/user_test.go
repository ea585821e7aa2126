package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/edumanage/backend/core/registration"
	"github.com/edumanage/backend/core/user"
	testutil "github.com/edumanage/backend/tests"
)

func Test_userApi_login(t *testing.T) {
	ta := initApp(t)

	usr := testutil.CreateUser(t, ta.usrRepo, "Hero", "hero", "hero@test.cd", "mdr", user.RoleStudent, "STUAAA111", true)
	naughty := testutil.CreateUser(t, ta.usrRepo, "N Dog", "ndog", "ndog@test.cd", "mdr", user.RoleStudent, "STUBBB222", false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "empty body", body: login("", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "username is a required field",
				"password": "password is a required field",
			}),
		},
		{
			name: "unknown user", body: login("lol", "mdr"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login(usr.Username, "lol"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: login(naughty.Username, "mdr"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: login(usr.Username, "mdr"), wantCode: http.StatusOK},
		{name: "login with code", body: login(usr.LoginCode, "mdr"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			ta.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	ta := initApp(t)

	admin := testutil.CreateUser(t, ta.usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, "ADMAAA111", true)
	hero := testutil.CreateUser(t, ta.usrRepo, "Hero", "hero", "hero@test.cd", "", user.RoleStudent, "STUAAA111", true)
	teacher := testutil.CreateUser(t, ta.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, "TEAAAA111", true)

	adminToken := ta.getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: ta.getToken(t, hero), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, admin, hero, teacher),
		},
		{
			name: "search", path: "/v1/users?search=hero", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, hero),
		},
		{
			name: "filter by role", path: "/v1/users?role=teacher", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, teacher),
		},
		{
			name: "search (unknown)", path: "/v1/users?search=lol", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	ta := initApp(t)

	admin := testutil.CreateUser(t, ta.usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, "ADMAAA111", true)
	hero := testutil.CreateUser(t, ta.usrRepo, "Hero", "hero", "hero@test.cd", "", user.RoleStudent, "STUAAA111", true)
	other := testutil.CreateUser(t, ta.usrRepo, "Other", "other", "other@test.cd", "", user.RoleStudent, "STUBBB222", true)

	path := func(id int) string { return "/v1/users/" + strconv.Itoa(id) }

	tests := []httpTest{
		{name: "Auth required", path: path(hero.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Own record", path: path(hero.ID), token: ta.getToken(t, hero), wantCode: http.StatusOK,
			wantData: marchallObj(t, hero),
		},
		{
			name: "Someone else's record", path: path(other.ID), token: ta.getToken(t, hero), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Admin sees everyone", path: path(other.ID), token: ta.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, other),
		},
		{
			name: "Unknown ID", path: path(999), token: ta.getToken(t, admin), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	ta := initApp(t)

	admin := testutil.CreateUser(t, ta.usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, "ADMAAA111", true)
	hero := testutil.CreateUser(t, ta.usrRepo, "Hero", "hero", "hero@test.cd", "", user.RoleStudent, "STUAAA111", true)

	newUser := func(name, uname, role, class string) []byte {
		return marchallObj(t, user.NewUser{
			Name:            name,
			Username:        uname,
			Password:        "s3cret",
			PasswordConfirm: "s3cret",
			Role:            role,
			Class:           class,
		})
	}

	tests := []httpTest{
		{
			name: "Auth required", body: newUser("Alex", "alex", user.RoleStudent, "Class 10"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", body: newUser("Alex", "alex", user.RoleStudent, "Class 10"),
			token: ta.getToken(t, hero), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Register student", body: newUser("Alex", "alex", user.RoleStudent, "Class 10"),
			token: ta.getToken(t, admin), wantCode: http.StatusCreated, extra: user.RoleStudent,
		},
		{
			name: "Register teacher", body: newUser("John", "john", user.RoleTeacher, ""),
			token: ta.getToken(t, admin), wantCode: http.StatusCreated, extra: user.RoleTeacher,
		},
		{
			name: "Duplicate username", body: newUser("Hero 2", "hero", user.RoleStudent, "Class 10"),
			token: ta.getToken(t, admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var res registration.Result
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				switch tt.extra {
				case user.RoleStudent:
					if res.Student == nil || res.Student.ID != res.User.ID {
						t.Errorf("register did not create the student record: %+v", res)
					}
				case user.RoleTeacher:
					if res.Staff == nil || res.Staff.ID != res.User.ID {
						t.Errorf("register did not create the staff record: %+v", res)
					}
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

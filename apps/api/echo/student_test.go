package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	testutil "github.com/edumanage/backend/tests"
)

func Test_studentApi_markAttendance(t *testing.T) {
	ta := initApp(t)

	teacher := testutil.CreateUser(t, ta.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, "TEAAAA111", true)
	alexUsr := testutil.CreateUser(t, ta.usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	alex := testutil.CreateStudent(t, ta.stdRepo, alexUsr, "Class 10", nil)

	path := "/v1/students/" + strconv.Itoa(alex.ID) + "/attendance"
	body := func(date, status string) []byte {
		return marchallObj(t, AttendanceRequest{Date: date, Status: status})
	}

	tests := []httpTest{
		{name: "Auth required", body: body("", "present"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", body: body("", "present"), token: ta.getToken(t, alexUsr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Invalid status", body: body("", "lol"), token: ta.getToken(t, teacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": student.ErrInvalidStatus.Error()}),
		},
		{name: "Marked present", body: body("", "present"), token: ta.getToken(t, teacher), wantCode: http.StatusOK},
		{name: "Marked absent", body: body("2026-01-15", "absent"), token: ta.getToken(t, teacher), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var st student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				entry := st.Attendance[len(st.Attendance)-1]
				if entry.Method != student.MethodManual || entry.RecordedBy != teacher.ID {
					t.Errorf("attendance entry = %+v", entry)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_checkIn(t *testing.T) {
	ta := initApp(t)

	teacher := testutil.CreateUser(t, ta.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, "TEAAAA111", true)
	alexUsr := testutil.CreateUser(t, ta.usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	emmaUsr := testutil.CreateUser(t, ta.usrRepo, "Emma", "emma", "emma@test.cd", "", user.RoleStudent, "STUBBB222", true)
	alex := testutil.CreateStudent(t, ta.stdRepo, alexUsr, "Class 10", nil)
	testutil.CreateStudent(t, ta.stdRepo, emmaUsr, "Class 9", nil)

	// teacher opens a session for their class
	req, rec := newAuthRequest(http.MethodPost, "/v1/students/check-in-session", ta.getToken(t, alexUsr),
		marchallObj(t, CheckInSessionRequest{Class: "Class 10"}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("check-in-session as student: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/students/check-in-session", ta.getToken(t, teacher),
		marchallObj(t, CheckInSessionRequest{Class: "Class 10"}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("check-in-session: code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var session student.CheckInSession
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if session.Token == "" {
		t.Fatal("check-in-session: empty token")
	}

	checkInPath := func(id int) string { return "/v1/students/" + strconv.Itoa(id) + "/check-in" }
	body := marchallObj(t, CheckInRequest{Token: session.Token})

	// a student cannot redeem someone else's record
	req, rec = newAuthRequest(http.MethodPost, checkInPath(alex.ID), ta.getToken(t, emmaUsr), body)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("check-in for another student: code = %v; want %v", rec.Code, http.StatusNotFound)
	}

	// session is bound to the class
	req, rec = newAuthRequest(http.MethodPost, checkInPath(emmaUsr.ID), ta.getToken(t, emmaUsr), body)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("check-in with class mismatch: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// happy path
	req, rec = newAuthRequest(http.MethodPost, checkInPath(alex.ID), ta.getToken(t, alexUsr), body)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-in: code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var st student.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(st.Attendance) != 1 || st.Attendance[0].Method != student.MethodQR {
		t.Errorf("check-in attendance = %+v", st.Attendance)
	}
}

func Test_studentApi_reportCard(t *testing.T) {
	ta := initApp(t)
	ctx := context.Background()

	parent := testutil.CreateUser(t, ta.usrRepo, "Robert", "robert", "robert@test.cd", "", user.RoleParent, "PARAAA111", true)
	stranger := testutil.CreateUser(t, ta.usrRepo, "Strange", "strange", "strange@test.cd", "", user.RoleParent, "PARBBB222", true)
	alexUsr := testutil.CreateUser(t, ta.usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	alex := testutil.CreateStudent(t, ta.stdRepo, alexUsr, "Class 10", &parent.ID)

	if err := ta.stdRepo.SetGrade(ctx, alex.ID, "Math", "A"); err != nil {
		t.Fatalf("SetGrade(): %v", err)
	}

	path := "/v1/students/" + strconv.Itoa(alex.ID) + "/report-card"

	tests := []httpTest{
		{name: "Own report card", token: ta.getToken(t, alexUsr), wantCode: http.StatusOK},
		{name: "Parent of", token: ta.getToken(t, parent), wantCode: http.StatusOK},
		{
			name: "Unrelated parent", token: ta.getToken(t, stranger), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var rc student.ReportCard
				if err := json.Unmarshal(rec.Body.Bytes(), &rc); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if rc.Grades["Math"] != "A" {
					t.Errorf("report card grades = %v", rc.Grades)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

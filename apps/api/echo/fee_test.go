package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	testutil "github.com/edumanage/backend/tests"
)

func Test_feeApi(t *testing.T) {
	ta := initApp(t)

	accountant := testutil.CreateUser(t, ta.usrRepo, "Counter", "counter", "counter@test.cd", "", user.RoleAccountant, "ACCAAA111", true)
	teacher := testutil.CreateUser(t, ta.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, "TEAAAA111", true)
	alexUsr := testutil.CreateUser(t, ta.usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	emmaUsr := testutil.CreateUser(t, ta.usrRepo, "Emma", "emma", "emma@test.cd", "", user.RoleStudent, "STUBBB222", true)
	alex := testutil.CreateStudent(t, ta.stdRepo, alexUsr, "Class 10", nil)
	testutil.CreateStudent(t, ta.stdRepo, emmaUsr, "Class 9", nil)

	accToken := ta.getToken(t, accountant)

	// fee endpoints are accountant-only
	req, rec := newAuthRequest(http.MethodGet, "/v1/fees/structures", ta.getToken(t, teacher))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("structures as teacher: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	// define the structure for Class 10 only
	req, rec = newAuthRequest(http.MethodPost, "/v1/fees/structures", accToken,
		marchallObj(t, fee.NewStructure{ClassName: "Class 10", Amount: 5000, Description: "Monthly Tuition Fee"}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("set structure: code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var structure fee.Structure
	if err := json.Unmarshal(rec.Body.Bytes(), &structure); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}

	// validation
	req, rec = newAuthRequest(http.MethodPost, "/v1/fees/structures", accToken,
		marchallObj(t, fee.NewStructure{ClassName: "", Amount: 0, Description: ""}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("set invalid structure: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// accrual run
	req, rec = newAuthRequest(http.MethodPost, "/v1/fees/accrue", accToken)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("accrue: code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res fee.AccrualResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if res.Charged != 1 || res.Skipped != 0 {
		t.Errorf("accrue = %+v; want 1 charged", res)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "Class 9" {
		t.Errorf("accrue missing = %v; want [Class 9]", res.Missing)
	}

	// payment
	req, rec = newAuthRequest(http.MethodPost, "/v1/fees/students/"+strconv.Itoa(alex.ID)+"/payments", accToken,
		marchallObj(t, PaymentRequest{Amount: 2000}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("payment: code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var st student.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if st.Fees.Balance != 3000 {
		t.Errorf("payment balance = %v; want 3000", st.Fees.Balance)
	}

	// summary
	req, rec = newAuthRequest(http.MethodGet, "/v1/fees/students/"+strconv.Itoa(alex.ID)+"/summary", accToken)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: code = %v; want %v", rec.Code, http.StatusOK)
	}
	var summary fee.StudentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if summary.Charged != 5000 || summary.Paid != 2000 || summary.Balance != 3000 {
		t.Errorf("summary = %+v", summary)
	}

	// overdue
	req, rec = newAuthRequest(http.MethodGet, "/v1/fees/overdue", accToken)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("overdue: code = %v; want %v", rec.Code, http.StatusOK)
	}
	var overdue []fee.StudentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &overdue); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(overdue) != 1 || overdue[0].StudentID != alex.ID {
		t.Errorf("overdue = %+v", overdue)
	}
}

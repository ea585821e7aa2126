package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/academic"
	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/registration"
	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	emailsvc "github.com/edumanage/backend/services/email"
	dummydb "github.com/edumanage/backend/storage/database/dummy"
	testutil "github.com/edumanage/backend/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testApp struct {
	conf    *core.Config
	app     Server
	usrRepo user.Repository
	stdRepo student.Repository
	stfRepo staff.Repository
	feeRepo fee.Repository
}

func initApp(t *testing.T) *testApp {
	t.Helper()

	db, err := dummydb.Open("")
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(testutil.NopLogger{})
	emailsvc.ClearSentMessages()

	usrRepo := dummydb.NewUserRepository(db)
	stdRepo := dummydb.NewStudentRepository(db)
	stfRepo := dummydb.NewStaffRepository(db)
	feeRepo := dummydb.NewFeeRepository(db)
	acdRepo := dummydb.NewAcademicRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(stdRepo, conf)
	stfSvc := staff.NewService(stfRepo)
	feeSvc, err := fee.NewService(feeRepo, stdRepo, usrRepo, mailSvc, conf)
	if err != nil {
		t.Fatalf("fee.NewService(): %v", err)
	}

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          testutil.NopLogger{},
		UserSvc:         usrSvc,
		RegistrationSvc: registration.NewService(usrSvc, stdSvc, stfSvc),
		StudentSvc:      stdSvc,
		StaffSvc:        stfSvc,
		FeeSvc:          feeSvc,
		AcademicSvc:     academic.NewService(acdRepo),
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
	})
	return &testApp{
		conf:    conf,
		app:     app,
		usrRepo: usrRepo,
		stdRepo: stdRepo,
		stfRepo: stfRepo,
		feeRepo: feeRepo,
	}
}

func (ta *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(ta.conf, GetUserClaims(ta.conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

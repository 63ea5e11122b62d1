package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
	emailsvc "github.com/trezcool/ecolage/services/email"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
)

func init() {
	os.Setenv("ENV", "TEST")
	os.Setenv("TEST_DEBUG", "false")
	core.NewConfig()
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	extra    interface{}
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

type testApp struct {
	server     Server
	schoolRepo school.Repository
	feeRepo    fee.Repository
	schoolSvc  *school.Service
	feeSvc     *fee.Service
	ledger     *fee.Ledger
}

func initApp(t *testing.T, clock core.Clock) *testApp {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	schoolRepo := dummydb.NewSchoolRepository(db)
	feeRepo := dummydb.NewFeeRepository(db)

	schoolSvc := school.NewService(schoolRepo, clock)
	feeSvc := fee.NewService(nil, feeRepo, schoolSvc, clock)
	ledger := fee.NewLedger(nil, feeRepo, schoolSvc, emailsvc.NewConsoleServiceMock(), clock)

	server := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         nopLogger{},
		SchoolSvc:      schoolSvc,
		FeeSvc:         feeSvc,
		Ledger:         ledger,
	})
	return &testApp{
		server:     server,
		schoolRepo: schoolRepo,
		feeRepo:    feeRepo,
		schoolSvc:  schoolSvc,
		feeSvc:     feeSvc,
		ledger:     ledger,
	}
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
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
	return assert.ElementsMatch(t, j1, j2), nil
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

package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
	testutil "github.com/trezcool/ecolage/tests"
)

func newMonthlyDefinition(classID string) fee.NewDefinition {
	return fee.NewDefinition{
		ClassID:       classID,
		FeeType:       "Minerval",
		Category:      fee.CategoryTuition,
		Amount:        50000,
		AcademicYear:  "2024-2025",
		IsRecurring:   true,
		RecurringType: fee.RecurrenceMonthly,
	}
}

func TestFeeAPICreate(t *testing.T) {
	ctx := context.Background()
	app := initApp(t, testutil.NewFixedClock(2024, 9, 1))
	cls, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}

	req, rec := newRequest(http.MethodPost, "/v1/fees", marchallObj(t, newMonthlyDefinition(cls.ID)))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var def fee.Definition
	if err = json.Unmarshal(rec.Body.Bytes(), &def); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	assert.NotEmpty(t, def.ID)
	assert.Equal(t, cls.ID, def.ClassID)
	assert.Equal(t, "7ème A", def.ClassName)
	assert.Equal(t, 50000, def.Amount)

	// validation errors surface as a field map
	bad := newMonthlyDefinition(cls.ID)
	bad.Amount = 0
	req, rec = newRequest(http.MethodPost, "/v1/fees", marchallObj(t, bad))
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"amount": "ce champ est obligatoire"}`),
	}, rec)

	// unknown class
	req, rec = newRequest(http.MethodPost, "/v1/fees", marchallObj(t, newMonthlyDefinition("8b7a2f92-74f5-44bc-a1a9-8a9b1f2f3a4b")))
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "class not found"}),
	}, rec)
}

func TestFeeAPIRetrieveAndQuery(t *testing.T) {
	ctx := context.Background()
	app := initApp(t, testutil.NewFixedClock(2024, 9, 1))
	cls, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	def, err := app.feeSvc.Create(ctx, newMonthlyDefinition(cls.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []httpTest{
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/fees/" + def.ID,
			wantCode: http.StatusOK, wantData: marchallObj(t, def),
		},
		{
			name: "retrieve unknown ID", method: http.MethodGet, path: "/v1/fees/0d4ebf39-7c07-46b9-9a5a-1a6d00541f32",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "fee definition not found"}),
		},
		{
			name: "query", method: http.MethodGet, path: "/v1/fees",
			wantCode: http.StatusOK, wantData: marchallList(t, def),
		},
		{
			name: "query filtered by class", method: http.MethodGet, path: "/v1/fees?class_id=" + cls.ID,
			wantCode: http.StatusOK, wantData: marchallList(t, def),
		},
		{
			name: "query filtered by other class", method: http.MethodGet, path: "/v1/fees?class_id=6c8f18a6-4c0b-49a7-a934-bf4c3f9f2f11",
			wantCode: http.StatusOK, wantData: []byte("[]"),
		},
		{
			name: "query filtered by category", method: http.MethodGet, path: "/v1/fees?category=TRANSPORT",
			wantCode: http.StatusOK, wantData: []byte("[]"),
		},
		{
			name: "query with explicit ordering", method: http.MethodGet, path: "/v1/fees?ordering=-fee_type",
			wantCode: http.StatusOK, wantData: marchallList(t, def),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestFeeAPIUpdate(t *testing.T) {
	ctx := context.Background()
	app := initApp(t, testutil.NewFixedClock(2024, 9, 1))
	cls, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	def, err := app.feeSvc.Create(ctx, newMonthlyDefinition(cls.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	req, rec := newRequest(http.MethodPut, "/v1/fees/"+def.ID, []byte(`{"description": "frais mensuels"}`))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got fee.Definition
	if err = json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	assert.Equal(t, "frais mensuels", got.Description)
	assert.Equal(t, def.Amount, got.Amount)
}

func TestFeeAPIDestroy(t *testing.T) {
	ctx := context.Background()
	app := initApp(t, testutil.NewFixedClock(2024, 9, 20))
	cls, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	std, err := app.schoolSvc.EnrollStudent(ctx, school.NewStudent{Name: "Gracia Kalonji", ClassID: cls.ID})
	if err != nil {
		t.Fatalf("EnrollStudent() failed: %v", err)
	}
	def, err := app.feeSvc.Create(ctx, newMonthlyDefinition(cls.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err = app.feeSvc.GenerateInstances(ctx, def.ID); err != nil {
		t.Fatalf("GenerateInstances() failed: %v", err)
	}
	if _, err = app.ledger.Materialize(ctx, def.ID); err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}
	payID := fee.PaymentID(fee.InstanceID(def.ID, "2024-09"), std.ID)
	if _, err = app.ledger.RecordPayment(ctx, payID, fee.PaymentInput{Amount: 50000, Method: "cash", ReceiptNo: "R-001"}); err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}

	// recorded payments block a plain delete
	req, rec := newRequest(http.MethodDelete, "/v1/fees/"+def.ID)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "definition has recorded payments; use force to delete"}),
	}, rec)

	req, rec = newRequest(http.MethodDelete, "/v1/fees/"+def.ID+"?force=true")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newRequest(http.MethodGet, "/v1/fees/"+def.ID)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeeAPIDuplicate(t *testing.T) {
	ctx := context.Background()
	app := initApp(t, testutil.NewFixedClock(2024, 9, 1))
	cls1, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	cls2, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème B"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	def, err := app.feeSvc.Create(ctx, newMonthlyDefinition(cls1.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	req, rec := newRequest(http.MethodPost, "/v1/fees/"+def.ID+"/duplicate", marchallObj(t, DuplicateRequest{TargetClassID: cls2.ID}))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var dup fee.Definition
	if err = json.Unmarshal(rec.Body.Bytes(), &dup); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	assert.NotEqual(t, def.ID, dup.ID)
	assert.Equal(t, cls2.ID, dup.ClassID)
	assert.Equal(t, "7ème B", dup.ClassName)

	// target class is required
	req, rec = newRequest(http.MethodPost, "/v1/fees/"+def.ID+"/duplicate", []byte("{}"))
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"target_class_id": "ce champ est obligatoire"}`),
	}, rec)
}

func TestFeeAPIInstancesAndMaterialize(t *testing.T) {
	ctx := context.Background()
	app := initApp(t, testutil.NewFixedClock(2024, 9, 1))
	cls, err := app.schoolSvc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	if _, err = app.schoolSvc.EnrollStudent(ctx, school.NewStudent{Name: "Gracia Kalonji", ClassID: cls.ID}); err != nil {
		t.Fatalf("EnrollStudent() failed: %v", err)
	}
	def, err := app.feeSvc.Create(ctx, newMonthlyDefinition(cls.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// nothing generated yet
	req, rec := newRequest(http.MethodGet, "/v1/fees/"+def.ID+"/instances")
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)

	// materialize expands the schedule and creates the ledger rows in one call
	req, rec = newRequest(http.MethodPost, "/v1/fees/"+def.ID+"/materialize")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var payments []fee.Payment
	if err = json.Unmarshal(rec.Body.Bytes(), &payments); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	assert.Len(t, payments, 10)

	req, rec = newRequest(http.MethodGet, "/v1/fees/"+def.ID+"/instances")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var instances []fee.Instance
	if err = json.Unmarshal(rec.Body.Bytes(), &instances); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	assert.Len(t, instances, 10)

	// a second call creates nothing
	req, rec = newRequest(http.MethodPost, "/v1/fees/"+def.ID+"/materialize")
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusCreated, wantData: []byte("[]")}, rec)
}

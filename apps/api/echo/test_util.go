package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
	"github.com/luminastudy/lumina/core/planner"
	"github.com/luminastudy/lumina/core/session"
	emailsvc "github.com/luminastudy/lumina/services/email"
	logsvc "github.com/luminastudy/lumina/services/logger"
	plangensvc "github.com/luminastudy/lumina/services/plangen"
	memorykv "github.com/luminastudy/lumina/storage/kv/memory"
	testutil "github.com/luminastudy/lumina/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	app       Server
	conf      *core.Config
	store     *memorykv.Store
	directory *account.Directory
	session   *session.Session
	planner   *planner.Store
	generator *plangensvc.DummyService
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := testutil.NewConfig()
	store := memorykv.New()

	dir := account.NewDirectory(store)
	if err := dir.Load(); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	sess := session.NewSession(store, dir, emailsvc.NewDummyService(), conf)

	plannerStore := planner.NewStore(store)
	if err := plannerStore.Load(); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	generator := plangensvc.NewDummyService()

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logsvc.NewConsoleLogger(log.New(io.Discard, "", 0)),
		Session:        sess,
		Directory:      dir,
		Planner:        plannerStore,
		Generator:      generator,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testApp{
		app:       app,
		conf:      conf,
		store:     store,
		directory: dir,
		session:   sess,
		planner:   plannerStore,
		generator: generator,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// login authenticates against the live session and returns the account and a token.
func (ta *testApp) login(t *testing.T, email string) (account.Account, string) {
	t.Helper()
	acct, err := ta.session.Login(context.Background(), email, "whatever")
	if err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	return acct, getToken(t, acct)
}

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

func getToken(t *testing.T, acct account.Account) string {
	t.Helper()
	token, err := GenerateToken(GetAccountClaims(acct))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(tt.wantData)),
			B:        difflib.SplitLines(rec.Body.String()),
			FromFile: "want",
			ToFile:   "got",
			Context:  2,
		})
		t.Errorf("failed! data mismatch:\n%s", diff)
	}
}

func decodeTokenResponse(t *testing.T, rec *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decodeTokenResponse() failed: %v", err)
	}
	return resp
}

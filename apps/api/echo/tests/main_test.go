package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/swimschool/apps/api/echo"
	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/chat"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/session"
	"github.com/trezcool/swimschool/core/user"
	emailsvc "github.com/trezcool/swimschool/services/email"
	"github.com/trezcool/swimschool/services/export"
	logsvc "github.com/trezcool/swimschool/services/logger"
	"github.com/trezcool/swimschool/services/notify"
	storagesvc "github.com/trezcool/swimschool/services/storage"
	inmemdb "github.com/trezcool/swimschool/storage/database/inmem"
	"github.com/trezcool/swimschool/tests"
)

var (
	conf       *core.Config
	validate   *validator.Validate
	translator = core.NewTranslator()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}

	// a Tuesday morning in the school's timezone
	tuesday time.Time
)

func TestMain(m *testing.M) {
	conf = core.Conf
	conf.TestMode = true
	tuesday = time.Date(2025, time.June, 3, 10, 0, 0, 0, conf.Location)

	logger := logsvc.NewNopLogger()
	if err := core.ParseEmailTemplates(logger); err != nil {
		fmt.Printf("core.ParseEmailTemplates(): %v", err)
		os.Exit(1)
	}
	user.LoadCommonPasswords(logger)

	validate = validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	os.Exit(m.Run())
}

// fakeCompleter answers every prompt with answer, or fails with err.
type fakeCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

type testApp struct {
	server      *Server
	db          *inmemdb.DB
	usrRepo     user.Repository
	mail        *emailsvc.ConsoleServiceMock
	completer   *fakeCompleter
	broadcaster *notify.Broadcaster
	storageDir  string

	contentSvc    *content.Service
	attendanceSvc *attendance.Service
	scheduleSvc   *schedule.Service
	levelSvc      *level.Service
}

func setup(t *testing.T) *testApp {
	testutil.FreezeTime(t, tuesday)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)

	// set up services
	logger := logsvc.NewNopLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	completer := &fakeCompleter{answer: "¡Hola!"}
	broadcaster := notify.NewBroadcaster()
	storageDir := t.TempDir()
	storage := storagesvc.NewLocalStorage(storageDir, conf.Location)

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	levelSvc := level.NewService(inmemdb.NewLevelRepository(db))
	schedSvc := schedule.NewService(inmemdb.NewScheduleRepository(db))
	attSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db), usrSvc, schedSvc, export.NewExcelExporter(), logger)
	profileSvc := profile.NewService(inmemdb.NewProfileRepository(db), usrSvc)
	contentSvc := content.NewService(inmemdb.NewContentRepository(db), storage, broadcaster, logger)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SessionSvc:     session.NewService(inmemdb.NewSessionRepository(db), conf.SecretKey),
		LevelSvc:       levelSvc,
		ScheduleSvc:    schedSvc,
		AttendanceSvc:  attSvc,
		ResetSvc:       passwordreset.NewService(inmemdb.NewPasswordResetRepository(db), usrSvc, mailSvc, conf),
		ContentSvc:     contentSvc,
		ProfileSvc:     profileSvc,
		ChatSvc:        chat.NewService(inmemdb.NewChatRepository(db), completer, usrSvc, profileSvc, logger),
		Storage:        storage,
		Broadcaster:    broadcaster,
	})

	return &testApp{
		server:        server,
		db:            db,
		usrRepo:       usrRepo,
		mail:          mailSvc,
		completer:     completer,
		broadcaster:   broadcaster,
		storageDir:    storageDir,
		contentSvc:    contentSvc,
		attendanceSvc: attSvc,
		scheduleSvc:   schedSvc,
		levelSvc:      levelSvc,
	}
}

// users creates an admin, a teacher and a student.
func (app *testApp) users(t *testing.T) (admin, teacher, student user.User) {
	admin = testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.mx", testutil.UserOpts{Role: user.RoleAdmin})
	teacher = testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher@test.mx", testutil.UserOpts{Role: user.RoleTeacher})
	student = testutil.CreateUser(t, app.usrRepo, "Student", "student@test.mx")
	return admin, teacher, student
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error interface{} `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(newAuthRequest(method, tt.path, tt.token, tt.body))
			checkCode(t, tt, rec)
			if tt.wantData != nil {
				checkData(t, tt, rec)
			}
		})
	}
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

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(conf, NewClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func respData(t *testing.T, data interface{}, msg ...string) []byte {
	resp := Response{Data: data}
	if len(msg) > 0 {
		resp.Message = msg[0]
	}
	return marshallObj(t, resp)
}

// decodeData unmarshals the data of a Response into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
}

func checkData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// tmplData returns the template data of a sent email.
func tmplData(msg core.EmailMessage) map[string]interface{} {
	data, _ := msg.TemplateData.(map[string]interface{})
	return data
}

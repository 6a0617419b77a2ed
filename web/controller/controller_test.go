package controller

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/filedock/filedock/database"
	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/web/entity"
	"github.com/filedock/filedock/web/locale"
	"github.com/filedock/filedock/web/service"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	files  *service.FileService
	users  *service.UserService
}

type envOptions struct {
	privateRead    bool
	maxUploadBytes int64
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	files, err := service.NewFileService(t.TempDir())
	require.NoError(t, err)
	bundle, err := locale.New()
	require.NoError(t, err)
	if opts.maxUploadBytes == 0 {
		opts.maxUploadBytes = 1 << 20
	}

	users := service.NewUserService(db)
	r := gin.New()
	r.Use(bundle.LocalizerMiddleware())
	r.Use(sessions.Sessions(session.CookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	g := r.Group("/")
	NewIndexController(g, users, time.Hour, false, nil)
	NewFileController(g, files, opts.maxUploadBytes, opts.privateRead)
	NewAPIController(r.Group("/api"), users, service.NewSystemUpdateService(db), service.NewServerService(files.Root()))

	return &testEnv{t: t, router: r, db: db, files: files, users: users}
}

func (e *testEnv) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, cookies)
}

func (e *testEnv) upload(folder, filename string, content []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(e.t, mw.WriteField("folder", folder))
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req, cookies)
}

// login creates the user when role is set and returns the session cookies.
func (e *testEnv) login(username, password string, role model.Role) []*http.Cookie {
	e.t.Helper()
	if role != "" {
		_, err := e.users.AddUser(username, password, role)
		require.NoError(e.t, err)
	}
	w := e.doJSON(http.MethodPost, "/login", entity.LoginForm{Username: username, Password: password}, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

package controllers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sushicount-api/config"
	"sushicount-api/database"
	"sushicount-api/models"
	"sushicount-api/routes"
	"sushicount-api/storage"
)

const testUploadLimit = 1024

var onePixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVQYV2NgYGD4DwABBAEAk0nKxQAAAABJRU5ErkJggg==")

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) FriendRequestReceived(_ context.Context, from, to models.UserSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, from.Name+"->"+to.Name)
	return nil
}

type testServer struct {
	t        *testing.T
	db       *gorm.DB
	blobs    *storage.DatabaseStore
	router   *gin.Engine
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		UploadMaxSize: testUploadLimit,
	}
	blobs := storage.NewDatabaseStore(db)
	notifier := &recordingNotifier{}

	return &testServer{
		t:        t,
		db:       db,
		blobs:    blobs,
		router:   routes.NewRouter(db, cfg, blobs, notifier),
		notifier: notifier,
	}
}

// do sends a JSON request; body may be nil. Extra headers come in key/value pairs.
func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// upload posts a multipart form; a nil content skips the file part.
func (s *testServer) upload(sessionID, fileName string, content []byte, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(s.t, err)
		_, err = part.Write(content)
		require.NoError(s.t, err)
	} else {
		require.NoError(s.t, mw.WriteField("note", "no file"))
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(name string) string {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/users", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "Password1",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return gjson.Get(w.Body.String(), "id").String()
}

func (s *testServer) createSession(creatorID, title string) string {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/sessions/create/"+creatorID, map[string]interface{}{"title": title})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return gjson.Get(w.Body.String(), "id").String()
}

package controllers_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"sushicount-api/services"
)

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	w := s.do(http.MethodPost, "/api/sessions/create/"+alice, map[string]interface{}{
		"title":           "<b>Friday</b> Sushi",
		"restaurant_name": "Sushi Place",
		"participants": []map[string]interface{}{
			{"user_id": alice, "count": 4, "rating": 7},
			{"user_id": bob, "count": 6, "rating": 10},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, "Friday Sushi", gjson.Get(body, "title").String())
	assert.Equal(t, alice, gjson.Get(body, "creator_id").String())
	assert.True(t, gjson.Get(body, "is_active").Bool())
	assert.Equal(t, int64(10), gjson.Get(body, "total_count").Int())
	assert.Equal(t, int64(9), gjson.Get(body, "rating").Int())
	assert.Equal(t, int64(2), gjson.Get(body, "participants.#").Int())

	tests := []struct {
		name    string
		creator string
		body    map[string]interface{}
		status  int
	}{
		{name: "missing title", creator: alice, body: map[string]interface{}{"title": "  "}, status: http.StatusBadRequest},
		{name: "bad rating", creator: alice, body: map[string]interface{}{
			"title":        "x",
			"participants": []map[string]interface{}{{"user_id": bob, "rating": 11}},
		}, status: http.StatusBadRequest},
		{name: "blank participant", creator: alice, body: map[string]interface{}{
			"title":        "x",
			"participants": []map[string]interface{}{{"count": 1}},
		}, status: http.StatusBadRequest},
		{name: "unknown creator", creator: "missing", body: map[string]interface{}{"title": "x"}, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/sessions/create/"+tt.creator, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestListSessions(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	carol := s.register("carol")

	w := s.do(http.MethodPost, "/api/sessions/create/"+alice, map[string]interface{}{
		"title":        "Shared",
		"participants": []map[string]interface{}{{"user_id": bob, "count": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	shared := gjson.Get(w.Body.String(), "id").String()

	closed := s.createSession(bob, "Closed")
	w = s.do(http.MethodPut, "/api/sessions", map[string]interface{}{"id": closed, "title": "Closed", "is_active": false})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "#").Int())

	w = s.do(http.MethodGet, "/api/sessions/mine/"+bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "#").Int())

	w = s.do(http.MethodGet, "/api/sessions/open/"+bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "#").Int())
	assert.Equal(t, shared, gjson.Get(w.Body.String(), "0.id").String())

	w = s.do(http.MethodGet, "/api/sessions/mine/"+carol, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = s.do(http.MethodGet, "/api/sessions/"+shared, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shared", gjson.Get(w.Body.String(), "title").String())
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "total_count").Int())

	w = s.do(http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", gjson.Get(w.Body.String(), "error").String())
}

func TestUpdateSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	id := s.createSession(alice, "Lunch")

	w := s.do(http.MethodPut, "/api/sessions", map[string]interface{}{
		"id": id, "title": "Late lunch", "description": "Downtown", "is_active": true,
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Late lunch", gjson.Get(w.Body.String(), "title").String())
	assert.Equal(t, "Downtown", gjson.Get(w.Body.String(), "description").String())

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{name: "missing is_active", body: map[string]interface{}{"id": id, "title": "x"}, status: http.StatusBadRequest},
		{name: "missing title", body: map[string]interface{}{"id": id, "is_active": true}, status: http.StatusBadRequest},
		{name: "unknown session", body: map[string]interface{}{"id": "missing", "title": "x", "is_active": true}, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPut, "/api/sessions", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestParticipants(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	id := s.createSession(alice, "Dinner")

	w := s.do(http.MethodPut, "/api/sessions/"+id+"/participants", map[string]interface{}{"user_id": bob, "count": 3})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/sessions/"+id+"/participants", map[string]interface{}{"user_id": bob, "count": 2, "rating": 8})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), gjson.Get(w.Body.String(), "total_count").Int())
	assert.Equal(t, int64(8), gjson.Get(w.Body.String(), "rating").Int())
	assert.Equal(t, int64(5), gjson.Get(w.Body.String(), `participants.#(user_id=="`+bob+`").count`).Int())

	tests := []struct {
		name    string
		session string
		body    map[string]interface{}
		status  int
	}{
		{name: "rating too high", session: id, body: map[string]interface{}{"user_id": bob, "rating": 11}, status: http.StatusBadRequest},
		{name: "missing user", session: id, body: map[string]interface{}{"count": 1}, status: http.StatusBadRequest},
		{name: "unknown session", session: "missing", body: map[string]interface{}{"user_id": bob, "count": 1}, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPut, "/api/sessions/"+tt.session+"/participants", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w = s.do(http.MethodPut, "/api/sessions", map[string]interface{}{"id": id, "title": "Dinner", "is_active": false})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPut, "/api/sessions/"+id+"/participants", map[string]interface{}{"user_id": bob, "count": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Session is closed", gjson.Get(w.Body.String(), "error").String())

	w = s.do(http.MethodDelete, "/api/sessions/"+id+"/participants/"+bob, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/api/sessions/"+id+"/participants/"+bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "total_count").Int())
	assert.Equal(t, "null", gjson.Get(w.Body.String(), "rating").Raw)
}

func TestExportMine(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.createSession(alice, "Sushi Night")

	w := s.do(http.MethodGet, "/api/sessions/mine/"+alice+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, services.ExportContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sessions-"+alice+".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(services.ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sushi Night", rows[1][0])
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	id := s.createSession(alice, "Gone")

	w := s.upload(id, "pic.png", onePixelPNG)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	imageID := gjson.Get(w.Body.String(), "id").String()

	w = s.do(http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/"+id+"/images/"+imageID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

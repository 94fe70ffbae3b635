package controllers_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	id := s.createSession(alice, "Pics")

	w := s.upload(id, "../../dinner.png", onePixelPNG, "X-User-Id", alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := w.Body.String()
	imageID := gjson.Get(body, "id").String()
	assert.NotEmpty(t, imageID)
	assert.Equal(t, "dinner.png", gjson.Get(body, "file_name").String())
	assert.Equal(t, "image/png", gjson.Get(body, "content_type").String())
	assert.Equal(t, int64(len(onePixelPNG)), gjson.Get(body, "size").Int())
	assert.Equal(t, alice, gjson.Get(body, "uploaded_by").String())
	assert.True(t, gjson.Get(body, "is_thumbnail").Bool())

	w = s.do(http.MethodGet, "/api/sessions/"+id+"/images/"+imageID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(onePixelPNG, w.Body.Bytes()))

	w = s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, imageID, gjson.Get(w.Body.String(), "images.0.id").String())
}

func TestUploadImage_Rejected(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	id := s.createSession(alice, "Pics")

	tests := []struct {
		name    string
		session string
		content []byte
		headers []string
		status  int
	}{
		{name: "not an image", session: id, content: []byte("just some text"), status: http.StatusBadRequest},
		{name: "empty file", session: id, content: []byte{}, status: http.StatusBadRequest},
		{name: "too large", session: id, content: append(append([]byte{}, onePixelPNG...), make([]byte, testUploadLimit)...), status: http.StatusBadRequest},
		{name: "missing file", session: id, content: nil, status: http.StatusBadRequest},
		{name: "not the creator", session: id, content: onePixelPNG, headers: []string{"X-User-Id", bob}, status: http.StatusForbidden},
		{name: "unknown session", session: "missing", content: onePixelPNG, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.upload(tt.session, "file.png", tt.content, tt.headers...)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "images.#").Int())
}

func TestImageThumbnailAndDelete(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	id := s.createSession(alice, "Pics")

	w := s.upload(id, "one.png", onePixelPNG)
	require.Equal(t, http.StatusCreated, w.Code)
	first := gjson.Get(w.Body.String(), "id").String()

	w = s.upload(id, "two.png", onePixelPNG)
	require.Equal(t, http.StatusCreated, w.Code)
	second := gjson.Get(w.Body.String(), "id").String()
	assert.False(t, gjson.Get(w.Body.String(), "is_thumbnail").Bool())

	w = s.do(http.MethodPut, "/api/sessions/"+id+"/images/"+second+"/thumbnail", nil, "X-User-Id", bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/sessions/"+id+"/images/"+second+"/thumbnail", nil, "X-User-Id", alice)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), `images.#(id=="`+second+`").is_thumbnail`).Bool())
	assert.False(t, gjson.Get(w.Body.String(), `images.#(id=="`+first+`").is_thumbnail`).Bool())

	w = s.do(http.MethodPut, "/api/sessions/"+id+"/images/missing/thumbnail", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/sessions/"+id+"/images/"+second, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "images.#").Int())
	assert.True(t, gjson.Get(w.Body.String(), "images.0.is_thumbnail").Bool())

	w = s.do(http.MethodDelete, "/api/sessions/"+id+"/images/"+second, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/"+id+"/images/"+second, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadRequest(t *testing.T, payload []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", "essay.txt")
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestEssayFromRequestRejectsOversizeUpload(t *testing.T) {
	body, contentType := newUploadRequest(t, bytes.Repeat([]byte("a"), maxEssayBytes+1))
	r := httptest.NewRequest("POST", "/api/essay/analyze", body)
	r.Header.Set("Content-Type", contentType)

	_, err := essayFromRequest(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestEssayFromRequestReadsJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/essay/analyze",
		strings.NewReader(`{"essay_text":"  My essay.  "}`))
	r.Header.Set("Content-Type", "application/json")

	text, err := essayFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "My essay.", text)
}

package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/swimschool/apps/api/echo"
)

func Test_fileApi(t *testing.T) {
	app := setup(t)
	admin, teacher, _ := app.users(t)
	adminToken := getToken(t, admin)

	upload := func(token string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", "Cover.PNG")
		require.NoError(t, err)
		_, err = part.Write([]byte("png"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/files", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return app.do(req, httptest.NewRecorder())
	}

	assert.Equal(t, http.StatusForbidden, upload(getToken(t, teacher)).Code)

	rec := upload(adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var stored StoredFile
	decodeData(t, rec, &stored)
	assert.Regexp(t, regexp.MustCompile(`^uploads/2025/06/3/[0-9a-f-]{36}\.png$`), stored.Path)
	content, err := os.ReadFile(filepath.Join(app.storageDir, filepath.FromSlash(stored.Path)))
	require.NoError(t, err)
	assert.Equal(t, "png", string(content))

	deletion := func(path string) []byte { return marshallObj(t, FileDeletion{Path: path}) }
	app.run(t, []httpTest{
		{name: "outside of uploads", method: http.MethodDelete, path: "/v1/files", token: adminToken, body: deletion("../secret.txt"), wantCode: http.StatusBadRequest},
		{name: "deleted", method: http.MethodDelete, path: "/v1/files", token: adminToken, body: deletion(stored.Path), wantCode: http.StatusOK},
		{
			name: "already deleted", method: http.MethodDelete, path: "/v1/files", token: adminToken, body: deletion(stored.Path),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "file not found"}),
		},
	})
}

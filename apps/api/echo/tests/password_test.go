package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/swimschool/apps/api/echo"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/user"
	"github.com/trezcool/swimschool/tests"
)

func Test_passwordApi(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Nemo", "nemo@test.mx", testutil.UserOpts{Password: "Old-pa55word", Unverified: true})

	requestToken := func() string {
		t.Helper()
		app.mail.Reset()
		rec := app.do(newRequest(http.MethodPost, "/v1/password/token", marshallObj(t, PasswordResetRequest{Email: usr.Email})))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		sent := app.mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "password_reset", sent[0].TemplateName)
		token, _ := tmplData(sent[0])["Token"].(string)
		return token
	}

	app.run(t, []httpTest{
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/password/token",
			body: marshallObj(t, PasswordResetRequest{Email: "dory@test.mx"}), wantCode: http.StatusNotFound,
		},
		{
			name: "malformed token", path: "/v1/password/token/abc", wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: passwordreset.ErrInvalidToken.Error()}),
		},
		{
			name: "unknown token", path: "/v1/password/token/0f8fad5b-d9cb-469f-a165-70867728950e", wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: passwordreset.ErrTokenNotFound.Error()}),
		},
	})

	// a new token invalidates the previous one
	first := requestToken()
	second := requestToken()
	app.run(t, []httpTest{
		{name: "replaced token", path: "/v1/password/token/" + first, wantCode: http.StatusNotFound},
		{
			name: "valid token", path: "/v1/password/token/" + second, wantCode: http.StatusOK,
			wantData: marshallObj(t, passwordreset.Validation{Valid: true, Email: usr.Email}),
		},
	})

	change := func(pwd, confirm string) []byte {
		return marshallObj(t, user.NewPassword{Email: usr.Email, Password: pwd, PasswordConfirm: confirm})
	}
	app.run(t, []httpTest{
		{name: "too short", method: http.MethodPost, path: "/v1/password/change", body: change("Ab1!", "Ab1!"), wantCode: http.StatusUnprocessableEntity},
		{name: "mismatch", method: http.MethodPost, path: "/v1/password/change", body: change("N3w-Passw0rd!", "other"), wantCode: http.StatusUnprocessableEntity},
		{name: "too common", method: http.MethodPost, path: "/v1/password/change", body: change("password", "password"), wantCode: http.StatusUnprocessableEntity},
		{name: "changed", method: http.MethodPost, path: "/v1/password/change", body: change("N3w-Passw0rd!", "N3w-Passw0rd!"), wantCode: http.StatusOK},
		{name: "token consumed", path: "/v1/password/token/" + second, wantCode: http.StatusNotFound},
	})

	// the account stays unverified until its verification token is used
	login := marshallObj(t, LoginRequest{Email: usr.Email, Password: "N3w-Passw0rd!"})
	rec := app.do(newRequest(http.MethodPost, "/v1/login", login))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"error": "account not verified"}`, rec.Body.String())

	require.NotNil(t, usr.Token)
	rec = app.do(newRequest(http.MethodGet, "/v1/users/verify/"+*usr.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.do(newRequest(http.MethodPost, "/v1/login", login))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_passwordApi_expiredToken(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Nemo", "nemo@test.mx")

	rec := app.do(newRequest(http.MethodPost, "/v1/password/token", marshallObj(t, PasswordResetRequest{Email: usr.Email})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := app.mail.SentMessages()
	require.Len(t, sent, 1)
	token, _ := tmplData(sent[0])["Token"].(string)

	testutil.FreezeTime(t, tuesday.Add(conf.PasswordResetTimeout+time.Second))
	rec = app.do(newRequest(http.MethodGet, "/v1/password/token/"+token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "password reset token has expired"}`, rec.Body.String())
}

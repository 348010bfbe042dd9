package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/schedule"
)

func Test_levelApi(t *testing.T) {
	app := setup(t)
	admin, teacher, student := app.users(t)
	studentToken := getToken(t, student)

	assign := func(userID, levelID int) []byte {
		return marshallObj(t, level.Assignment{UserID: userID, LevelID: levelID})
	}
	path := "/v1/swimming-levels/assign-to-user"

	app.run(t, []httpTest{
		{name: "no progress yet", path: "/v1/swimming-levels/by-user", token: studentToken, wantCode: http.StatusNotFound},
		{name: "staff required", method: http.MethodPost, path: path, body: assign(student.ID, 1), token: studentToken, wantCode: http.StatusForbidden},
		{name: "invalid data", method: http.MethodPost, path: path, body: []byte(`{}`), token: getToken(t, admin), wantCode: http.StatusUnprocessableEntity},
		{name: "unknown user", method: http.MethodPost, path: path, body: assign(999, 1), token: getToken(t, admin), wantCode: http.StatusNotFound},
		{
			name: "skipping a level", method: http.MethodPost, path: path, body: assign(student.ID, 2), token: getToken(t, teacher),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: level.ErrInvalidSequence.Error()}),
		},
		{name: "first level", method: http.MethodPost, path: path, body: assign(student.ID, 1), token: getToken(t, teacher), wantCode: http.StatusCreated},
		{
			name: "same level", method: http.MethodPost, path: path, body: assign(student.ID, 1), token: getToken(t, teacher),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: level.ErrAlreadyAssigned.Error()}),
		},
		{name: "second level", method: http.MethodPost, path: path, body: assign(student.ID, 2), token: getToken(t, admin), wantCode: http.StatusCreated},
		{name: "others progress requires staff", path: "/v1/swimming-levels/by-user/" + strconv.Itoa(student.ID), token: studentToken, wantCode: http.StatusForbidden},
	})

	rec := app.do(newAuthRequest(http.MethodGet, "/v1/swimming-levels/by-user", studentToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var prog level.Progress
	decodeData(t, rec, &prog)
	assert.Equal(t, 2, prog.CompletedLevels)
	assert.Equal(t, 5, prog.TotalLevels)
	assert.Equal(t, 3, prog.RemainingLevels)
	assert.Equal(t, 40, prog.ProgressPercentage)
	require.NotNil(t, prog.CurrentLevel)
	assert.Equal(t, 2, prog.CurrentLevel.ID)
	require.NotNil(t, prog.NextLevel)
	assert.Equal(t, 3, prog.NextLevel.ID)

	rec = app.do(newAuthRequest(http.MethodGet, "/v1/swimming-levels", studentToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var levels []level.Level
	decodeData(t, rec, &levels)
	require.Len(t, levels, 5)
	assert.Equal(t, 5, levels[0].ID)
}

func Test_scheduleApi(t *testing.T) {
	app := setup(t)
	admin, _, student := app.users(t)
	adminToken := getToken(t, admin)

	newSched := func(userID int, days ...string) []byte {
		return marshallObj(t, schedule.NewSchedule{UserID: userID, Days: days, EntryTime: "16:00", DepartureTime: "17:00"})
	}
	path := "/v1/schedules"
	userPath := path + "/" + strconv.Itoa(student.ID)

	app.run(t, []httpTest{
		{name: "none yet", path: userPath, token: adminToken, wantCode: http.StatusNotFound},
		{name: "staff required", method: http.MethodPost, path: path, body: newSched(student.ID, "LUNES"), token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "unknown day", method: http.MethodPost, path: path, body: newSched(student.ID, "MONDAY"), token: adminToken, wantCode: http.StatusUnprocessableEntity},
		{name: "duplicated day", method: http.MethodPost, path: path, body: newSched(student.ID, "LUNES", "LUNES"), token: adminToken, wantCode: http.StatusUnprocessableEntity},
		{
			name: "departure before entry", method: http.MethodPost, path: path, token: adminToken,
			body:     marshallObj(t, schedule.NewSchedule{UserID: student.ID, Days: []string{"LUNES"}, EntryTime: "17:00", DepartureTime: "16:00"}),
			wantCode: http.StatusUnprocessableEntity,
		},
		{name: "unknown user", method: http.MethodPost, path: path, body: newSched(999, "LUNES"), token: adminToken, wantCode: http.StatusNotFound},
		{name: "assigned", method: http.MethodPost, path: path, body: newSched(student.ID, "LUNES", "MIÉRCOLES"), token: adminToken, wantCode: http.StatusCreated},
		{name: "reassigned", method: http.MethodPost, path: path, body: newSched(student.ID, "VIERNES"), token: adminToken, wantCode: http.StatusCreated},
	})

	// previous rows are deactivated
	rec := app.do(newAuthRequest(http.MethodGet, userPath, getToken(t, student)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var scheds []schedule.Schedule
	decodeData(t, rec, &scheds)
	require.Len(t, scheds, 1)
	assert.Equal(t, "VIERNES", scheds[0].Day)
	assert.True(t, scheds[0].IsActive())
}

package user_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
	emailsvc "github.com/trezcool/swimschool/services/email"
	logsvc "github.com/trezcool/swimschool/services/logger"
	inmemdb "github.com/trezcool/swimschool/storage/database/inmem"
	"github.com/trezcool/swimschool/tests"
)

func TestMain(m *testing.M) {
	if err := core.ParseEmailTemplates(logsvc.NewNopLogger()); err != nil {
		fmt.Printf("core.ParseEmailTemplates(): %v", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func setup(t *testing.T) (*user.Service, user.Repository, *emailsvc.ConsoleServiceMock) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(core.Conf)
	return user.NewService(repo, mailSvc, core.Conf), repo, mailSvc
}

func newUser(email string) user.NewUser {
	return user.NewUser{Name: "Ana", LastName: "López", BirthDate: "2012-06-03", Email: email, Role: user.RoleStudent}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, time.June, 3, 10, 0, 0, 0, core.Conf.Location)
	testutil.FreezeTime(t, at)
	svc, _, mailSvc := setup(t)

	created, err := svc.Create(ctx, newUser("ana@test.mx"))
	require.NoError(t, err)
	assert.Equal(t, at.Format(core.CodeLayout), created.User.UserCode)
	assert.False(t, created.User.IsVerified())
	assert.NoError(t, created.User.CheckPassword(created.Password))

	// same second: the next free code
	second, err := svc.Create(ctx, newUser("beto@test.mx"))
	require.NoError(t, err)
	assert.Equal(t, at.Format(core.CodeLayout)+"01", second.User.UserCode)

	_, err = svc.Create(ctx, newUser("ana@test.mx"))
	assert.Error(t, err)

	msgs := mailSvc.SentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "welcome", msgs[0].TemplateName)
	data := msgs[0].TemplateData.(map[string]interface{})
	assert.Equal(t, created.Password, data["Password"])
	assert.Equal(t, created.User.UserCode, data["UserCode"])

	t.Run("verify", func(t *testing.T) {
		token := data["Token"].(string)
		verified, err := svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.True(t, verified.IsVerified())

		_, err = svc.Verify(ctx, token)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, _, mailSvc := setup(t)

	nu := newUser("Coach@Test.mx")
	nu.Role = user.RoleTeacher
	usr, err := svc.Register(ctx, nu, "Coach-pwd-123")
	require.NoError(t, err)
	assert.Equal(t, "coach@test.mx", usr.Email)
	assert.True(t, usr.IsVerified())
	assert.NoError(t, usr.CheckPassword("Coach-pwd-123"))
	assert.Empty(t, mailSvc.SentMessages())

	nu.BirthDate = "03/06/2012"
	_, err = svc.Register(ctx, nu, "Coach-pwd-123")
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t)

	admin := testutil.CreateUser(t, repo, "Admin", "admin@test.mx", testutil.UserOpts{Role: user.RoleAdmin})
	student := testutil.CreateUser(t, repo, "Ana", "ana@test.mx")

	assert.Equal(t, user.ErrCannotDeleteSelf, svc.Delete(ctx, admin, admin.ID))
	assert.Equal(t, user.ErrNotFound, svc.Delete(ctx, admin, 999))
	require.NoError(t, svc.Delete(ctx, admin, student.ID))

	_, err := svc.GetByID(ctx, student.ID)
	assert.Equal(t, user.ErrNotFound, err)
	assert.Equal(t, user.ErrNotFound, svc.Delete(ctx, admin, student.ID))

	// the email of a deleted user can be registered again
	usr, err := svc.Register(ctx, newUser(student.Email), "Ana-pwd-123")
	require.NoError(t, err)
	assert.NotEqual(t, student.ID, usr.ID)
	got, err := svc.GetByEmail(ctx, student.Email)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
}

func TestService_BirthdaysToday(t *testing.T) {
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2025, time.June, 3, 10, 0, 0, 0, core.Conf.Location))
	svc, repo, _ := setup(t)

	ana := testutil.CreateUser(t, repo, "Ana", "ana@test.mx", testutil.UserOpts{BirthDate: time.Date(2012, time.June, 3, 0, 0, 0, 0, time.UTC)})
	testutil.CreateUser(t, repo, "Beto", "beto@test.mx", testutil.UserOpts{BirthDate: time.Date(2012, time.June, 4, 0, 0, 0, 0, time.UTC)})

	got, err := svc.BirthdaysToday(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ana.ID, got[0].ID)
}

func TestService_Students(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t)

	testutil.CreateUser(t, repo, "Teacher", "teacher@test.mx", testutil.UserOpts{Role: user.RoleTeacher})
	for i := 0; i < 5; i++ {
		testutil.CreateUser(t, repo, fmt.Sprintf("Student%d", i), fmt.Sprintf("student%d@test.mx", i))
	}

	page, err := svc.Students(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	page, err = svc.Students(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	for _, usr := range page {
		assert.True(t, usr.IsStudent())
	}
}

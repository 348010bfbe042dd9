package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/chat"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/user"
	logsvc "github.com/trezcool/swimschool/services/logger"
	inmemdb "github.com/trezcool/swimschool/storage/database/inmem"
	"github.com/trezcool/swimschool/tests"
)

type fakeCompleter struct {
	answer  string
	err     error
	prompts []string
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

func TestService_Ask(t *testing.T) {
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC))

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, nil, core.Conf)
	profileSvc := profile.NewService(inmemdb.NewProfileRepository(db), usrSvc)
	completer := &fakeCompleter{}
	svc := chat.NewService(inmemdb.NewChatRepository(db), completer, usrSvc, profileSvc, logsvc.NewNopLogger())

	student := testutil.CreateUser(t, usrRepo, "Ana", "ana@test.mx")
	teacher := testutil.CreateUser(t, usrRepo, "Coach", "coach@test.mx", testutil.UserOpts{Role: user.RoleTeacher})
	_, err := profileSvc.Assign(ctx, teacher, profile.NewEntry{
		UserID: teacher.ID, Type: profile.TypeAchievements, Content: "Campeón nacional 2010", VisibleTo: profile.VisibilityPublic,
	})
	require.NoError(t, err)
	_, err = profileSvc.Assign(ctx, teacher, profile.NewEntry{
		UserID: teacher.ID, Type: profile.TypeHobbies, Content: "Colecciona estampas", VisibleTo: profile.VisibilityStaff,
	})
	require.NoError(t, err)

	_, err = svc.History(ctx, student.ID)
	assert.Equal(t, chat.ErrNoHistory, err)

	t.Run("completion failure", func(t *testing.T) {
		completer.err = errors.New("timeout")
		_, err := svc.Ask(ctx, student, chat.Question{Message: "¿Quién es mi maestro?"})
		assert.Equal(t, chat.ErrUnavailable, err)
	})

	t.Run("empty answer", func(t *testing.T) {
		completer.err = nil
		completer.answer = "   "
		_, err := svc.Ask(ctx, student, chat.Question{Message: "¿Quién es mi maestro?"})
		assert.Equal(t, chat.ErrUnavailable, err)
	})

	_, err = svc.History(ctx, student.ID)
	assert.Equal(t, chat.ErrNoHistory, err)

	t.Run("answer", func(t *testing.T) {
		completer.answer = " Tu maestro es Coach. "
		answer, err := svc.Ask(ctx, student, chat.Question{Message: "¿Quién es mi maestro?"})
		require.NoError(t, err)
		assert.Equal(t, "Tu maestro es Coach.", answer)

		prompt := completer.prompts[len(completer.prompts)-1]
		assert.Contains(t, prompt, "Campeón nacional 2010")
		assert.Contains(t, prompt, "Pregunta: ¿Quién es mi maestro?")
		assert.NotContains(t, prompt, "Colecciona estampas")
		assert.NotContains(t, prompt, "coach@test.mx")
		assert.NotContains(t, prompt, "ana@test.mx")

		msgs, err := svc.History(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, chat.SenderUser, msgs[0].Sender)
		assert.Equal(t, "¿Quién es mi maestro?", msgs[0].Message)
		assert.Equal(t, chat.SenderAI, msgs[1].Sender)
		assert.Equal(t, "Tu maestro es Coach.", msgs[1].Message)
	})
}

func TestNewContext(t *testing.T) {
	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)
	current := user.User{ID: 2, Name: "Ana", Email: "ana@test.mx", Role: user.RoleStudent, BirthDate: core.NewDate(time.Date(2015, time.June, 4, 0, 0, 0, 0, time.UTC))}
	other := user.User{ID: 1, Name: "Coach", Email: "coach@test.mx", PhoneNumber: "5512345678", Role: user.RoleTeacher}

	ctx := chat.NewContext(current, []user.User{current, other}, []profile.Entry{
		{UserID: 1, Type: profile.TypeBiography, Content: "Nadador olímpico"},
	}, now)

	assert.Equal(t, 9, ctx.User.Age)
	require.Len(t, ctx.Users, 2)
	assert.Equal(t, 1, ctx.Users[0].ID)
	assert.Equal(t, []chat.ProfileEntry{{Type: profile.TypeBiography, Content: "Nadador olímpico"}}, ctx.Users[0].Profile)
	assert.Empty(t, ctx.Users[1].Profile)

	prompt, err := chat.BuildPrompt(ctx, "  hola ")
	require.NoError(t, err)
	assert.NotContains(t, prompt, "5512345678")
	assert.NotContains(t, prompt, "@test.mx")
	assert.Contains(t, prompt, "Pregunta: hola\n")
}

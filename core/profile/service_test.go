package profile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/user"
	inmemdb "github.com/trezcool/swimschool/storage/database/inmem"
	"github.com/trezcool/swimschool/tests"
)

type fixture struct {
	svc                     *profile.Service
	admin, teacher, student user.User
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	return fixture{
		svc:     profile.NewService(inmemdb.NewProfileRepository(db), user.NewService(usrRepo, nil, core.Conf)),
		admin:   testutil.CreateUser(t, usrRepo, "Admin", "admin@test.mx", testutil.UserOpts{Role: user.RoleAdmin}),
		teacher: testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.mx", testutil.UserOpts{Role: user.RoleTeacher}),
		student: testutil.CreateUser(t, usrRepo, "Student", "student@test.mx"),
	}
}

func TestService_Assign(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	entry := func(userID int, typ profile.Type) profile.NewEntry {
		return profile.NewEntry{UserID: userID, Type: typ, Content: "Nado desde los 5 años", VisibleTo: profile.VisibilityPublic}
	}
	tests := []struct {
		name    string
		actor   user.User
		entry   profile.NewEntry
		wantErr error
	}{
		{name: "someone else's profile", actor: f.teacher, entry: entry(f.student.ID, profile.TypeHobbies), wantErr: profile.ErrForbidden},
		{name: "unknown user", actor: f.admin, entry: entry(999, profile.TypeHobbies), wantErr: user.ErrNotFound},
		{name: "biography", actor: f.teacher, entry: entry(f.teacher.ID, profile.TypeBiography)},
		{name: "second biography", actor: f.teacher, entry: entry(f.teacher.ID, profile.TypeBiography), wantErr: profile.ErrTypeLimitReached},
		{name: "admin on behalf", actor: f.admin, entry: entry(f.teacher.ID, profile.TypeAchievements)},
		{name: "achievement 2", actor: f.teacher, entry: entry(f.teacher.ID, profile.TypeAchievements)},
		{name: "achievement 3", actor: f.teacher, entry: entry(f.teacher.ID, profile.TypeAchievements)},
		{name: "achievement 4", actor: f.teacher, entry: entry(f.teacher.ID, profile.TypeAchievements), wantErr: profile.ErrTypeLimitReached},
		{name: "unlimited type", actor: f.teacher, entry: entry(f.teacher.ID, profile.TypeExperience)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := f.svc.Assign(ctx, tt.actor, tt.entry)
			assert.Equal(t, tt.wantErr, err)
			if err == nil {
				assert.NotZero(t, e.ID)
				assert.Equal(t, tt.entry.UserID, e.UserID)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	e, err := f.svc.Assign(ctx, f.student, profile.NewEntry{
		UserID: f.student.ID, Type: profile.TypeHobbies, Content: "Leer", VisibleTo: profile.VisibilityPrivate,
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.student, e.ID+1, profile.UpdateEntry{UserID: f.student.ID, Content: "Correr"})
	assert.Equal(t, profile.ErrNotFound, err)

	_, err = f.svc.Update(ctx, f.admin, e.ID, profile.UpdateEntry{UserID: f.teacher.ID, Content: "Correr"})
	assert.Equal(t, profile.ErrNotOwned, err)

	_, err = f.svc.Update(ctx, f.teacher, e.ID, profile.UpdateEntry{UserID: f.student.ID, Content: "Correr"})
	assert.Equal(t, profile.ErrForbidden, err)

	updated, err := f.svc.Update(ctx, f.student, e.ID, profile.UpdateEntry{UserID: f.student.ID, Content: "Correr"})
	require.NoError(t, err)
	assert.Equal(t, "Correr", updated.Content)
}

func TestService_Info_visibility(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for _, v := range []profile.Visibility{profile.VisibilityPublic, profile.VisibilityStudents, profile.VisibilityStaff, profile.VisibilityPrivate} {
		_, err := f.svc.Assign(ctx, f.teacher, profile.NewEntry{
			UserID: f.teacher.ID, Type: profile.TypeExperience, Content: string(v), VisibleTo: v,
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		viewer user.User
		want   int
	}{
		{name: "owner", viewer: f.teacher, want: 4},
		{name: "admin", viewer: f.admin, want: 4},
		{name: "other teacher", viewer: user.User{ID: 99, Role: user.RoleTeacher}, want: 3},
		{name: "student", viewer: f.student, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := f.svc.Info(ctx, tt.viewer, f.teacher.ID)
			require.NoError(t, err)
			assert.Equal(t, f.teacher.ID, info.User.ID)
			assert.Len(t, info.Entries, tt.want)

			visible, err := f.svc.Visible(ctx, tt.viewer)
			require.NoError(t, err)
			assert.Len(t, visible, tt.want)
		})
	}

	_, err := f.svc.Info(ctx, f.admin, 999)
	assert.Equal(t, user.ErrNotFound, err)
}

// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

var codeSeq int64

// UserOpts tweaks the users created by CreateUser.
type UserOpts struct {
	Role       user.Role
	Password   string
	BirthDate  time.Time
	Unverified bool
	CreatedAt  time.Time
}

// CreateUser inserts a user straight into repo, bypassing the welcome email.
func CreateUser(t *testing.T, repo user.Repository, name, email string, opts ...UserOpts) user.User {
	t.Helper()

	var opt UserOpts
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Role == 0 {
		opt.Role = user.RoleStudent
	}
	if opt.BirthDate.IsZero() {
		opt.BirthDate = time.Date(2000, time.January, 15, 0, 0, 0, 0, time.UTC)
	}
	tstamp := time.Now().UTC()
	if !opt.CreatedAt.IsZero() {
		tstamp = opt.CreatedAt.UTC()
	}

	usr := user.User{
		Role:      opt.Role,
		Name:      name,
		LastName:  "Test",
		BirthDate: core.NewDate(opt.BirthDate),
		Email:     email,
		UserCode:  fmt.Sprintf("%s%04d", tstamp.Format(core.CodeLayout), atomic.AddInt64(&codeSeq, 1)),
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if opt.Unverified {
		token := fmt.Sprintf("verify-%s", usr.UserCode)
		usr.Token = &token
	}
	if opt.Password != "" {
		if err := usr.SetPassword(opt.Password); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}

	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// FreezeTime makes core.NowFunc return at until the test ends.
func FreezeTime(t *testing.T, at time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return at }
	t.Cleanup(func() { core.NowFunc = orig })
}

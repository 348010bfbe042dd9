// Package shared wires the services used by the API and the admin CLI.
package shared

import (
	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/chat"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/session"
	"github.com/trezcool/swimschool/core/user"
	aisvc "github.com/trezcool/swimschool/services/ai"
	emailsvc "github.com/trezcool/swimschool/services/email"
	"github.com/trezcool/swimschool/services/export"
	"github.com/trezcool/swimschool/services/notify"
	storagesvc "github.com/trezcool/swimschool/services/storage"
	"github.com/trezcool/swimschool/storage/database/sqlxrepos"
)

type Services struct {
	User       *user.Service
	Session    *session.Service
	Level      *level.Service
	Schedule   *schedule.Service
	Attendance *attendance.Service
	Reset      *passwordreset.Service
	Content    *content.Service
	Profile    *profile.Service
	Chat       *chat.Service

	Storage     core.FileStorage
	Broadcaster *notify.Broadcaster
}

// NewMailService prints emails in DEV and sends them through sendgrid otherwise.
func NewMailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// NewServices builds every service on top of the postgres repositories.
func NewServices(conf *core.Config, logger core.Logger, db core.DB, mailSvc core.EmailService) *Services {
	storage := storagesvc.NewLocalStorage(conf.StorageDir, conf.Location)
	broadcaster := notify.NewBroadcaster()

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	schedSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(db))
	profileSvc := profile.NewService(sqlxrepos.NewProfileRepository(db), usrSvc)

	return &Services{
		User:     usrSvc,
		Session:  session.NewService(sqlxrepos.NewSessionRepository(db), conf.SecretKey),
		Level:    level.NewService(sqlxrepos.NewLevelRepository(db)),
		Schedule: schedSvc,
		Attendance: attendance.NewService(
			sqlxrepos.NewAttendanceRepository(db), usrSvc, schedSvc, export.NewExcelExporter(), logger,
		),
		Reset:   passwordreset.NewService(sqlxrepos.NewPasswordResetRepository(db), usrSvc, mailSvc, conf),
		Content: content.NewService(sqlxrepos.NewContentRepository(db), storage, broadcaster, logger),
		Profile: profileSvc,
		Chat: chat.NewService(
			sqlxrepos.NewChatRepository(db), aisvc.NewClient(conf), usrSvc, profileSvc, logger,
		),
		Storage:     storage,
		Broadcaster: broadcaster,
	}
}

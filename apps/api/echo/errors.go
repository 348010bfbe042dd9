package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/chat"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/user"
	storagesvc "github.com/trezcool/swimschool/services/storage"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked         = echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errAccountUnverified    = echo.NewHTTPError(http.StatusBadRequest, "account not verified")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errFileNotFound         = echo.NewHTTPError(http.StatusNotFound, "file not found")
	errInvalidToken         = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errInvalidID            = echo.NewHTTPError(http.StatusBadRequest, "invalid id")
)

// domainErrCodes maps the domain sentinels to their HTTP status.
var domainErrCodes = map[error]int{
	user.ErrNotFound:         http.StatusNotFound,
	user.ErrCannotDeleteSelf: http.StatusForbidden,

	level.ErrNotFound:        http.StatusNotFound,
	level.ErrNoLevels:        http.StatusNotFound,
	level.ErrNoProgress:      http.StatusNotFound,
	level.ErrLimitReached:    http.StatusBadRequest,
	level.ErrAlreadyAssigned: http.StatusBadRequest,
	level.ErrInvalidSequence: http.StatusBadRequest,

	schedule.ErrNotFound:    http.StatusNotFound,
	schedule.ErrNoSchedules: http.StatusNotFound,

	attendance.ErrNotFound:      http.StatusNotFound,
	attendance.ErrUserNotFound:  http.StatusNotFound,
	attendance.ErrNoAttendances: http.StatusNotFound,
	attendance.ErrWrongRole:     http.StatusForbidden,
	attendance.ErrNoClassToday:  http.StatusBadRequest,
	attendance.ErrAlreadyMarked: http.StatusUnprocessableEntity,

	passwordreset.ErrInvalidToken:  http.StatusBadRequest,
	passwordreset.ErrTokenNotFound: http.StatusNotFound,
	passwordreset.ErrTokenExpired:  http.StatusUnauthorized,

	content.ErrNotFound:    http.StatusNotFound,
	content.ErrNoContents:  http.StatusNotFound,
	content.ErrInvalidType: http.StatusUnprocessableEntity,

	profile.ErrNotFound:         http.StatusNotFound,
	profile.ErrTypeLimitReached: http.StatusUnprocessableEntity,
	profile.ErrNotOwned:         http.StatusUnprocessableEntity,
	profile.ErrForbidden:        http.StatusForbidden,

	chat.ErrNoHistory:   http.StatusNotFound,
	chat.ErrUnavailable: http.StatusInternalServerError,

	storagesvc.ErrInvalidPath: http.StatusBadRequest,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusUnprocessableEntity
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusUnprocessableEntity
		default:
			if c, ok := domainErrCodes[cause]; ok {
				code = c
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if ctx.Echo().Debug {
				message = err.Error()
			}

			args := []interface{}{errors.Wrap(err, msg), map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Path(),
			}}
			if usr, uErr := getContextUser(ctx); uErr == nil {
				args = append(args, usr)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		} else {
			message = echo.Map{"error": message}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

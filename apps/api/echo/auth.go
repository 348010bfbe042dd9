package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/session"
	"github.com/trezcool/swimschool/core/user"
)

const (
	tokenContextKey = "userToken"
	userContextKey  = "user"
	tokenType       = "bearer"
)

func init() {
	jwt.TimeFunc = func() time.Time { return core.NowFunc() }
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role"`
}

func (c Claims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}

type authenticator struct {
	conf     *core.Config
	users    *user.Service
	sessions *session.Service
	jwtConf  middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, users *user.Service, sessions *session.Service) *authenticator {
	a := &authenticator{
		conf:     conf,
		users:    users,
		sessions: sessions,
	}
	a.jwtConf = middleware.JWTConfig{
		SigningKey:     []byte(conf.SecretKey),
		SigningMethod:  middleware.AlgorithmHS256,
		ContextKey:     tokenContextKey,
		ParseTokenFunc: a.parseToken,
	}
	return a
}

// parseToken keeps the context token a *jwt.Token carrying *Claims.
func (a *authenticator) parseToken(auth string, _ echo.Context) (interface{}, error) {
	token, err := jwt.ParseWithClaims(auth, new(Claims), func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return []byte(a.conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	return token, nil
}

// NewClaims returns the claims of a fresh token for usr. Refreshed tokens keep the original issue time.
func NewClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed HS256 token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// middleware validates the bearer token, rejects revoked ones and loads the current user.
func (a *authenticator) middleware() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTWithConfig(a.jwtConf), a.sessionMiddleware}
}

func (a *authenticator) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, ok := ctx.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return errUnauthorized
		}
		revoked, err := a.sessions.IsRevoked(ctx.Request().Context(), token.Raw)
		if err != nil {
			return errors.Wrap(err, "checking revoked token")
		}
		if revoked {
			return errTokenRevoked
		}

		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		id, err := claims.UserID()
		if err != nil {
			return errInvalidToken
		}
		usr, err := a.users.GetByID(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		ctx.Set(userContextKey, usr)
		return next(ctx)
	}
}

func getContextToken(ctx echo.Context) (*jwt.Token, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		return token, nil
	}
	return nil, errUnauthorized
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, err := getContextToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	if claims, ok := token.Claims.(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(userContextKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// login accepts an email or a user code as identifier.
func (a *authenticator) login(ctx echo.Context, identifier, pwd string, isEmail bool) (string, error) {
	var (
		usr user.User
		err error
	)
	if isEmail {
		usr, err = a.users.GetByEmail(ctx.Request().Context(), identifier)
	} else {
		usr, err = a.users.GetByCode(ctx.Request().Context(), identifier)
	}
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errAuthenticationFailed
		}
		return "", errors.Wrap(err, "finding user")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return "", errAuthenticationFailed
	}
	if !usr.IsVerified() {
		return "", errAccountUnverified
	}
	return GenerateToken(a.conf, NewClaims(a.conf, usr))
}

func (a *authenticator) logout(ctx echo.Context) error {
	token, err := getContextToken(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	expiresAt := time.Unix(claims.ExpiresAt, 0)
	return a.sessions.Revoke(ctx.Request().Context(), token.Raw, expiresAt)
}

func (a *authenticator) refresh(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}
	return GenerateToken(a.conf, NewClaims(a.conf, usr, claims.OrigIssuedAt))
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
)

func newTokenResponse(token string) TokenResponse {
	return TokenResponse{AccessToken: token, TokenType: tokenType}
}

package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	contextUserKey = "user"

	oauthStateCookie = "oauthstate"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
	Elevated     bool   `json:"elevated,omitempty"` // admin password gate passed
}

func GetUserClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			Audience:  "Chulseok",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Name:         usr.Name,
		Role:         usr.Role,
		IsAdmin:      usr.IsAdmin(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func refreshToken(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetUserClaims(usr, claims.OrigIssuedAt)
	newClaims.Elevated = claims.Elevated
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}

// Google OAuth

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     core.Conf.Google.ClientID,
		ClientSecret: core.Conf.Google.ClientSecret,
		RedirectURL:  core.Conf.BaseURL() + "/auth/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

type authApi struct {
	svc *user.Service
}

func registerAuthAPI(app *echo.Echo, v1 *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{svc: svc}

	app.GET("/auth/login", api.login)
	app.GET("/auth/callback", api.callback)

	ag := v1.Group("/auth", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)

	v1.POST("/admin/elevate", api.elevate, jwt, requireRoles(user.RoleAdmin, user.RoleSuperAdmin))
}

// login redirects to the Google consent screen with a single-use state nonce.
func (api *authApi) login(ctx echo.Context) error {
	state := uuid.New().String()
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	return ctx.Redirect(http.StatusTemporaryRedirect, googleOAuthConfig().AuthCodeURL(state))
}

func (api *authApi) callback(ctx echo.Context) error {
	cookie, err := ctx.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != ctx.QueryParam("state") {
		return errLoginFailed
	}

	code := ctx.QueryParam("code")
	if code == "" {
		return errLoginFailed
	}

	tok, err := googleOAuthConfig().Exchange(ctx.Request().Context(), code)
	if err != nil {
		return errLoginFailed
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return errLoginFailed
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err = v.VerifyIDToken(idToken, []string{core.Conf.Google.ClientID}); err != nil {
		return errLoginFailed
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return errLoginFailed
	}

	claims, err := api.authenticate(ctx, claimSet.Email, claimSet.Sub, claimSet.Picture)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

// authenticate admits only pre-registered, active accounts; Google sign-in
// never self-provisions a user.
func (api *authApi) authenticate(ctx echo.Context, email, googleID, picture string) (*Claims, error) {
	rctx := ctx.Request().Context()

	usr, err := api.svc.GetByEmail(rctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errEmailNotRegistered
		}
		return nil, errors.Wrap(err, "finding user by email")
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}

	usr, err = api.svc.SyncGoogleLogin(rctx, usr, googleID, picture)
	if err != nil {
		return nil, errors.Wrap(err, "syncing google login")
	}
	return GetUserClaims(usr), nil
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// elevate verifies the admin password and re-issues the session token with
// the Elevated claim set. Destructive admin endpoints require it.
func (api *authApi) elevate(ctx echo.Context) error {
	var data ElevateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ElevateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if core.Conf.AdminPasswordHash == "" {
		return errHttpForbidden
	}
	if err := bcrypt.CompareHashAndPassword([]byte(core.Conf.AdminPasswordHash), []byte(data.Password)); err != nil {
		return errLoginFailed
	}

	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	claims := GetUserClaims(usr)
	claims.Elevated = true
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

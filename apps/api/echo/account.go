package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core/account"
	"github.com/luminastudy/lumina/core/session"
)

type accountAPI struct {
	session    *session.Session
	directory  *account.Directory
	validate   *validator.Validate
	translator ut.Translator
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := accountAPI{
		session:    deps.Session,
		directory:  deps.Directory,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)

	// authed endpoints, any role
	mg := ag.Group("", jwt)
	mg.POST("/token-refresh", api.refreshToken)
	mg.POST("/logout", api.logout)
	mg.GET("/me", api.me)
	mg.PUT("/me", api.updateProfile)
	mg.POST("/me/premium", api.upgradeToPremium)
	mg.DELETE("/me/premium", api.cancelPremium)

	// moderator|admin endpoints
	modg := ag.Group("", jwt, moderatorMiddleware())
	modg.GET("", api.query)
	modg.POST("/:id/toggle-flag", api.toggleFlag)

	// admin-only endpoints
	admg := ag.Group("", jwt, adminMiddleware())
	admg.PUT("/:id/role", api.setRole)
	admg.POST("/:id/toggle-status", api.toggleStatus)
}

// Handlers

func (api *accountAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := api.session.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return api.tokenResponse(ctx, http.StatusOK, acct)
}

func (api *accountAPI) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := api.session.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering")
	}
	return api.tokenResponse(ctx, http.StatusCreated, acct)
}

func (api *accountAPI) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	acct, err := api.directory.Get(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding account by id")
	}
	if acct.Disabled() {
		return errAccountDisabled
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(jwtRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	token, err := GenerateToken(GetAccountClaims(acct, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token, Account: acct})
}

func (api *accountAPI) logout(ctx echo.Context) error {
	if err := api.session.Logout(); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountAPI) me(ctx echo.Context) error {
	acct, ok := api.session.Current()
	if !ok {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountAPI) updateProfile(ctx echo.Context) error {
	var data account.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := api.session.UpdateProfile(data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountAPI) upgradeToPremium(ctx echo.Context) error {
	acct, err := api.session.UpgradeToPremium()
	if err != nil {
		return errors.Wrap(err, "upgrading to premium")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountAPI) cancelPremium(ctx echo.Context) error {
	acct, err := api.session.CancelPremium()
	if err != nil {
		return errors.Wrap(err, "cancelling premium")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountAPI) query(ctx echo.Context) error {
	accounts, err := api.directory.All()
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	return ctx.JSON(http.StatusOK, accounts)
}

func (api *accountAPI) toggleFlag(ctx echo.Context) error {
	acct, err := api.directory.ToggleFlag(api.actorRole(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling flag")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountAPI) setRole(ctx echo.Context) error {
	var data SetRoleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetRoleRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := api.directory.SetRole(api.actorRole(), ctx.Param("id"), data.Role)
	if err != nil {
		return errors.Wrap(err, "setting role")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountAPI) toggleStatus(ctx echo.Context) error {
	acct, err := api.directory.ToggleStatus(api.actorRole(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling status")
	}
	return ctx.JSON(http.StatusOK, acct)
}

// actorRole is taken from the live session, not from the token: the
// directory re-checks privileges against its own record of the actor.
func (api *accountAPI) actorRole() account.Role {
	acct, ok := api.session.Current()
	if !ok {
		return ""
	}
	return acct.Role
}

func (api *accountAPI) tokenResponse(ctx echo.Context, code int, acct account.Account) error {
	token, err := GenerateToken(GetAccountClaims(acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, TokenResponse{Token: token, Account: acct})
}

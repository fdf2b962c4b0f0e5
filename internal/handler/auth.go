package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/fishtrack/internal/model"
    "github.com/iliyamo/fishtrack/internal/session"
)

// AuthHandler exposes the Session Gateway over HTTP.
type AuthHandler struct {
    Sessions *session.Gateway
}

func NewAuthHandler(s *session.Gateway) *AuthHandler {
    return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Name     string `json:"name"`
    Nickname string `json:"nickname"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type resetReq struct {
    Email string `json:"email"`
}
type confirmResetReq struct {
    Token    string `json:"token"`
    Password string `json:"password"`
}
type profileReq struct {
    Name     *string `json:"name"`
    Nickname *string `json:"nickname"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
    User    *model.User `json:"user"`
    Access  tokenPart   `json:"access"`
    Refresh tokenPart   `json:"refresh"`
}

func authResponse(s *session.Session) AuthResponse {
    return AuthResponse{
        User:    s.User,
        Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
        Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
    }
}

// Register creates the account and profile and signs the new user in.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Sessions.Register(ctx, session.RegisterInput{
        Email: req.Email, Password: req.Password, Name: req.Name, Nickname: req.Nickname,
    })
    if err != nil {
        return fail(c, err)
    }
    s, err := h.Sessions.StartSession(ctx, u)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, authResponse(s))
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    s, err := h.Sessions.Login(ctx, req.Email, req.Password)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, authResponse(s))
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    s, err := h.Sessions.Refresh(ctx, req.RefreshToken)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, authResponse(s))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body has none.  The route runs behind OptionalJWT.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req) // an empty or invalid body means "all sessions of the bearer"
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Sessions.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ResetPassword always answers 202 for a well-formed email so the endpoint
// cannot be used to probe which addresses exist.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Sessions.ResetPassword(ctx, req.Email); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusAccepted, echo.Map{"status": "sent"})
}

// ConfirmPasswordReset sets a new password from a recovery token.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
    var req confirmResetReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Sessions.ConfirmPasswordReset(ctx, req.Token, req.Password); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Sessions.CurrentUser(ctx)
    if err != nil {
        return fail(c, err)
    }
    if u == nil {
        return fail(c, session.ErrUnauthenticated)
    }
    return c.JSON(http.StatusOK, u)
}

// UpdateMe changes the caller's name and/or nickname.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    var req profileReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Sessions.UpdateProfile(ctx, session.ProfileUpdate{Name: req.Name, Nickname: req.Nickname})
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

// UserData returns the profile of any user by uid.
func (h *AuthHandler) UserData(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Sessions.UserData(ctx, c.Param("uid"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

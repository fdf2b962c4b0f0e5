package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/fishtrack/internal/capture"
    "github.com/iliyamo/fishtrack/internal/model"
    "github.com/iliyamo/fishtrack/internal/session"
    "github.com/iliyamo/fishtrack/internal/views"
)

// CaptureHandler exposes the Record Store Gateway.  Every route runs behind
// JWTAuth, so the gateway finds the owner on the request context.
type CaptureHandler struct {
    Captures *capture.Gateway
}

func NewCaptureHandler(g *capture.Gateway) *CaptureHandler {
    if g == nil {
        panic("nil capture gateway passed to NewCaptureHandler")
    }
    return &CaptureHandler{Captures: g}
}

// createCaptureReq accepts numbers either as JSON numbers or as the text the
// user typed.
type createCaptureReq struct {
    Species     string       `json:"species"`
    Weight      model.Number `json:"weight"`
    Size        model.Number `json:"size"`
    Date        string       `json:"date"`
    Weather     string       `json:"weather"`
    Image       string       `json:"image"`
    Latitude    float64      `json:"latitude"`
    Longitude   float64      `json:"longitude"`
    Description string       `json:"description"`
}

type updateCaptureReq struct {
    Species *string       `json:"species"`
    Size    *model.Number `json:"size"`
    Weight  *model.Number `json:"weight"`
    Weather *string       `json:"weather"`
}

func (r updateCaptureReq) patch() model.CapturePatch {
    var p model.CapturePatch
    if r.Species != nil {
        s := strings.TrimSpace(*r.Species)
        p.Species = &s
    }
    if r.Size != nil {
        f := float64(*r.Size)
        p.Size = &f
    }
    if r.Weight != nil {
        f := float64(*r.Weight)
        p.Weight = &f
    }
    if r.Weather != nil {
        p.Weather = r.Weather
    }
    return p
}

// bindCapture decodes a capture body and tells a non-numeric weight or size
// apart from a malformed document.
func bindCapture(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        if errors.Is(err, model.ErrNotANumber) {
            return fail(c, model.ErrNotANumber)
        }
        return badBody(c)
    }
    return nil
}

// Create stores a new catch for the caller.  Species and image are
// required; the other fields are stored as sent.
func (h *CaptureHandler) Create(c echo.Context) error {
    var req createCaptureReq
    if err := bindCapture(c, &req); err != nil || c.Response().Committed {
        return err
    }
    req.Species = strings.TrimSpace(req.Species)
    req.Image = strings.TrimSpace(req.Image)
    if req.Species == "" || req.Image == "" {
        return fail(c, session.ErrMissingFields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    saved, err := h.Captures.AddCapture(ctx, model.Capture{
        Species:     req.Species,
        Weight:      float64(req.Weight),
        Size:        float64(req.Size),
        Date:        strings.TrimSpace(req.Date),
        Weather:     req.Weather,
        Image:       req.Image,
        Latitude:    req.Latitude,
        Longitude:   req.Longitude,
        Description: req.Description,
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, saved)
}

// List returns the caller's catches, newest first.  ?view=cards returns the
// list card projection instead of raw records.
func (h *CaptureHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    items, err := h.Captures.GetUserCaptures(ctx)
    if err != nil {
        return fail(c, err)
    }
    if c.QueryParam("view") == "cards" {
        return c.JSON(http.StatusOK, echo.Map{"items": views.Cards(items)})
    }
    if items == nil {
        items = []model.Capture{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Map returns the caller's catches as map pins.
func (h *CaptureHandler) Map(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    items, err := h.Captures.GetUserCaptures(ctx)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"pins": views.Pins(items)})
}

// Get returns one catch owned by the caller.
func (h *CaptureHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    rec, err := h.Captures.GetCapture(ctx, c.Param("id"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, rec)
}

// Update applies a partial edit.  A body that changes nothing is rejected.
func (h *CaptureHandler) Update(c echo.Context) error {
    var req updateCaptureReq
    if err := bindCapture(c, &req); err != nil || c.Response().Committed {
        return err
    }
    p := req.patch()
    if p.Empty() || (p.Species != nil && *p.Species == "") {
        return fail(c, session.ErrMissingFields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Captures.UpdateCapture(ctx, c.Param("id"), p); err != nil {
        return fail(c, err)
    }
    rec, err := h.Captures.GetCapture(ctx, c.Param("id"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, rec)
}

// Delete removes one catch owned by the caller.
func (h *CaptureHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Captures.DeleteCapture(ctx, c.Param("id")); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

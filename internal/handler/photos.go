package handler

import (
    "context"
    "io"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/fishtrack/internal/apierror"
    "github.com/iliyamo/fishtrack/internal/session"
    "github.com/iliyamo/fishtrack/internal/storage"
)

// PhotoSaver stores an uploaded catch photo and its resized variants.
type PhotoSaver interface {
    Save(ctx context.Context, userID, filename, contentType string, r io.Reader) (storage.Photo, error)
}

// PhotoHandler accepts catch photo uploads.  Store is nil when object
// storage is not configured.
type PhotoHandler struct {
    Store PhotoSaver
}

func NewPhotoHandler(s PhotoSaver) *PhotoHandler {
    return &PhotoHandler{Store: s}
}

// Upload reads the multipart field "image" and returns the stored photo.
// The returned URL is what a capture's image field should carry.
func (h *PhotoHandler) Upload(c echo.Context) error {
    if h.Store == nil {
        return c.JSON(http.StatusServiceUnavailable, apierror.Body{Error: "storage_disabled", Message: "photo storage is not configured"})
    }
    fh, err := c.FormFile("image")
    if err != nil {
        return fail(c, session.ErrMissingFields)
    }
    f, err := fh.Open()
    if err != nil {
        return badBody(c)
    }
    defer f.Close()

    ctx, cancel := context.WithTimeout(c.Request().Context(), 4*requestTimeout)
    defer cancel()
    uid, err := session.RequireUser(ctx)
    if err != nil {
        return fail(c, err)
    }
    photo, err := h.Store.Save(ctx, uid, fh.Filename, fh.Header.Get("Content-Type"), f)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, photo)
}

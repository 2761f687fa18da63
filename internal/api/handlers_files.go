// handlers_files.go - Read-back handlers for stored frames and upload history
package api

import (
	"errors"
	"net/http"

	"github.com/csv-backend/backend/internal/models"
	"github.com/csv-backend/backend/internal/parser"
	"github.com/csv-backend/backend/internal/storage"
	"github.com/csv-backend/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	recentFilesLimit   = 50
	recentUploadsLimit = 100
)

// FilesHandlerImpl implements the FilesHandler interface
type FilesHandlerImpl struct {
	volume storage.Volume
	parser *parser.FrameParser
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(volume storage.Volume) FilesHandler {
	return &FilesHandlerImpl{
		volume: volume,
		parser: parser.NewFrameParser(),
	}
}

// frameResponse is a stored frame decoded for clients.
type frameResponse struct {
	File    string             `json:"file" msgpack:"file"`
	Columns []models.Column    `json:"columns" msgpack:"columns"`
	Rows    []models.Row       `json:"rows" msgpack:"rows"`
	Skipped []*models.RowError `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
}

// HandleListFiles returns the most recent stored files
func (h *FilesHandlerImpl) HandleListFiles(c echo.Context) error {
	files, err := h.volume.List(c.Request().Context(), recentFilesLimit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.StoredFile{}
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFrame decodes one stored file and returns it as JSON
func (h *FilesHandlerImpl) HandleGetFrame(c echo.Context) error {
	resp, err := h.loadFrame(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleGetFrameMsgpack is HandleGetFrame with a MessagePack body
func (h *FilesHandlerImpl) HandleGetFrameMsgpack(c echo.Context) error {
	resp, err := h.loadFrame(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(resp)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *FilesHandlerImpl) loadFrame(c echo.Context) (*frameResponse, error) {
	name := c.Param("name")
	if name == "" {
		return nil, NewValidationError("name")
	}

	rc, err := h.volume.Open(c.Request().Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			return nil, NewValidationError("name")
		case errors.Is(err, storage.ErrNotFound):
			return nil, NewNotFoundError("file", name)
		}
		return nil, NewInternalError("failed to open file", err)
	}
	defer rc.Close()

	frame, rowErrs, err := h.parser.Decode(rc)
	if err != nil {
		return nil, NewInternalError("stored file is not decodable", err)
	}

	return &frameResponse{
		File:    name,
		Columns: frame.Columns,
		Rows:    frame.Rows,
		Skipped: rowErrs,
	}, nil
}

// UploadsHandlerImpl implements the UploadsHandler interface
type UploadsHandlerImpl struct {
	tracker *upload.Manager
}

// NewUploadsHandler creates a new upload history handler
func NewUploadsHandler(tracker *upload.Manager) UploadsHandler {
	return &UploadsHandlerImpl{tracker: tracker}
}

// HandleListUploads returns recent uploads, newest first
func (h *UploadsHandlerImpl) HandleListUploads(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Recent(recentUploadsLimit))
}

// HandleGetUpload returns one upload record
func (h *UploadsHandlerImpl) HandleGetUpload(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	rec, err := h.tracker.Get(id)
	if err != nil {
		return NewNotFoundError("upload", id)
	}

	return c.JSON(http.StatusOK, rec)
}

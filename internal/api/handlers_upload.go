// handlers_upload.go - Frame upload handler
package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/csv-backend/backend/internal/parser"
	"github.com/csv-backend/backend/internal/storage"
	"github.com/csv-backend/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// HeaderUploadID carries the tracker id of an upload in the response.
const HeaderUploadID = "X-Upload-Id"

// UploadAccepted is the body returned for a stored upload.
const UploadAccepted = "all good"

// IngestHandlerImpl implements the IngestHandler interface
type IngestHandlerImpl struct {
	volume  storage.Volume
	parser  *parser.FrameParser
	tracker *upload.Manager
	namer   storage.Namer
	now     func() time.Time
}

// NewIngestHandler creates a new ingest handler. A nil clock means time.Now.
func NewIngestHandler(volume storage.Volume, tracker *upload.Manager, namer storage.Namer, now func() time.Time) IngestHandler {
	if now == nil {
		now = time.Now
	}
	if namer == nil {
		namer = storage.TimestampName
	}
	return &IngestHandlerImpl{
		volume:  volume,
		parser:  parser.NewFrameParser(),
		tracker: tracker,
		namer:   namer,
		now:     now,
	}
}

// HandleUpload decodes the raw CSV body, re-encodes it with an index column
// and writes it to the volume under a name derived from the arrival time.
func (h *IngestHandlerImpl) HandleUpload(c echo.Context) error {
	receivedAt := h.now()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}

	id := h.tracker.Begin(receivedAt, int64(len(body)))
	c.Response().Header().Set(HeaderUploadID, id)

	frame, rowErrs, err := h.parser.Decode(bytes.NewReader(body))
	if err != nil {
		h.tracker.MarkRejected(id, err)
		c.Logger().Warnf("upload %s rejected: %v", id, err)
		return NewBadRequestError("request body is not decodable CSV", err)
	}
	for _, re := range rowErrs {
		c.Logger().Debugf("upload %s: skipped line %d: %s", id, re.Line, re.Reason)
	}

	encoded, err := h.parser.EncodeBytes(frame)
	if err != nil {
		h.tracker.MarkFailed(id, frame.Len(), len(rowErrs), err)
		return NewInternalError("failed to encode frame", err)
	}

	name := h.namer(receivedAt)
	info, err := h.volume.Save(c.Request().Context(), name, bytes.NewReader(encoded))
	if err != nil {
		h.tracker.MarkFailed(id, frame.Len(), len(rowErrs), err)
		return NewInternalError("failed to store frame", err)
	}

	h.tracker.MarkStored(id, info.Name, frame.Len(), len(rowErrs))
	c.Logger().Infof("upload %s stored as %s (%d rows, %d skipped)", id, info.Name, frame.Len(), len(rowErrs))

	return c.String(http.StatusOK, UploadAccepted)
}

// handlers_upload_test.go - Tests for the upload handler
package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/csv-backend/backend/internal/models"
	"github.com/csv-backend/backend/internal/parser"
	"github.com/csv-backend/backend/internal/storage"
	"github.com/csv-backend/backend/internal/testutil"
	"github.com/csv-backend/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func postUpload(t *testing.T, h IngestHandler, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h.HandleUpload(c)
}

func TestIngestHandler_HandleUpload(t *testing.T) {
	arrival := time.Unix(1700000000, 0)

	tests := []struct {
		name        string
		body        string
		saveErr     error
		wantStatus  int
		wantErrCode string
		wantRows    int
		wantSkipped int
		wantRecord  models.UploadStatus
	}{
		{
			name:       "well-formed csv",
			body:       "a,b\n1,x\n2,y\n",
			wantStatus: http.StatusOK,
			wantRows:   2,
			wantRecord: models.UploadStatusStored,
		},
		{
			name:        "malformed lines are skipped",
			body:        "a,b\n1,x\n2,y,extra\n3,z\n",
			wantStatus:  http.StatusOK,
			wantRows:    2,
			wantSkipped: 1,
			wantRecord:  models.UploadStatusStored,
		},
		{
			name:       "whitespace line before header",
			body:       "  \na,b\n1,x\n2,y\n",
			wantStatus: http.StatusOK,
			wantRows:   2,
			wantRecord: models.UploadStatusStored,
		},
		{
			name:       "body with synthetic index",
			body:       ",a\n0,1\n1,2\n",
			wantStatus: http.StatusOK,
			wantRows:   2,
			wantRecord: models.UploadStatusStored,
		},
		{
			name:        "empty body",
			body:        "",
			wantStatus:  http.StatusBadRequest,
			wantErrCode: "BAD_REQUEST",
			wantRecord:  models.UploadStatusRejected,
		},
		{
			name:        "invalid utf-8",
			body:        "a\n\xff\n",
			wantStatus:  http.StatusBadRequest,
			wantErrCode: "BAD_REQUEST",
			wantRecord:  models.UploadStatusRejected,
		},
		{
			name:        "volume failure",
			body:        "a\n1\n",
			saveErr:     testutil.ErrDiskFull,
			wantStatus:  http.StatusInternalServerError,
			wantErrCode: "INTERNAL_ERROR",
			wantRows:    1,
			wantRecord:  models.UploadStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := testutil.NewMockVolume()
			vol.SaveErr = tt.saveErr
			tracker := upload.NewManager(10)
			h := NewIngestHandler(vol, tracker, storage.TimestampName, fixedClock(arrival))

			rec, err := postUpload(t, h, tt.body)

			uploadID := rec.Header().Get(HeaderUploadID)
			require.NotEmpty(t, uploadID)
			record, terr := tracker.Get(uploadID)
			require.NoError(t, terr)
			assert.Equal(t, tt.wantRecord, record.Status)
			assert.Equal(t, tt.wantRows, record.Rows)
			assert.Equal(t, tt.wantSkipped, record.Skipped)

			if tt.wantErrCode != "" {
				apiErr, ok := err.(*APIError)
				require.True(t, ok, "expected APIError, got %T", err)
				assert.Equal(t, tt.wantStatus, apiErr.Status)
				assert.Equal(t, tt.wantErrCode, apiErr.Code)
				assert.Equal(t, 0, vol.Writes())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, UploadAccepted, rec.Body.String())

			require.Equal(t, []string{"1700000000.csv"}, vol.Names())
			data, _ := vol.File("1700000000.csv")
			assert.True(t, strings.HasPrefix(string(data), ","), "stored file starts with the index column")

			frame, rowErrs, err := parser.NewFrameParser().Decode(strings.NewReader(string(data)))
			require.NoError(t, err)
			assert.Empty(t, rowErrs)
			assert.Equal(t, tt.wantRows, frame.Len())
			assert.Equal(t, "1700000000.csv", record.StoredAs)
		})
	}
}

func TestIngestHandler_StoredFrameMatchesInput(t *testing.T) {
	dir := t.TempDir()
	vol, err := storage.NewLocalVolume(dir)
	require.NoError(t, err)
	h := NewIngestHandler(vol, upload.NewManager(10), nil, fixedClock(time.Unix(1700000123, 0)))

	body := "city,pop,capital\nOslo,709000,True\nBergen,291000,False\n"
	rec, err := postUpload(t, h, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "exactly one new file")
	assert.Equal(t, "1700000123.csv", entries[0].Name())

	p := parser.NewFrameParser()
	want, _, err := p.Decode(strings.NewReader(body))
	require.NoError(t, err)
	got, _, err := p.Load(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	assert.Equal(t, want.ColumnNames(), got.ColumnNames())
	assert.Equal(t, want.Rows, got.Rows)
}

// Uploads within the same second share a name under the timestamp strategy;
// the later write replaces the earlier one.
func TestIngestHandler_SameSecondLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	vol, err := storage.NewLocalVolume(dir)
	require.NoError(t, err)
	clock := fixedClock(time.Unix(1700000500, 0))
	h := NewIngestHandler(vol, upload.NewManager(10), storage.TimestampName, clock)

	_, err = postUpload(t, h, "v\nfirst\n")
	require.NoError(t, err)
	_, err = postUpload(t, h, "v\nsecond\n")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	frame, _, err := parser.NewFrameParser().Load(filepath.Join(dir, "1700000500.csv"))
	require.NoError(t, err)
	require.Equal(t, 1, frame.Len())
	assert.Equal(t, "second", frame.Rows[0][0])
}

func TestIngestHandler_UniqueNamingKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	vol, err := storage.NewLocalVolume(dir)
	require.NoError(t, err)
	h := NewIngestHandler(vol, upload.NewManager(10), storage.UniqueName, fixedClock(time.Unix(1700000500, 0)))

	_, err = postUpload(t, h, "v\nfirst\n")
	require.NoError(t, err)
	_, err = postUpload(t, h, "v\nsecond\n")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

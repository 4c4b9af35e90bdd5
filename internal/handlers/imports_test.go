package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-tracker/pkg/apperr"
	"asset-tracker/pkg/importer"
)

type recordedImport struct {
	calls   int
	opts    importer.ImportOptions
	content string
}

func newTestHandler(rec *recordedImport, sum importer.ImportSummary, err error) *ImportsHandler {
	return &ImportsHandler{
		MaxBytes: 1 << 20,
		Import: func(_ context.Context, r io.Reader, opts importer.ImportOptions) (importer.ImportSummary, error) {
			rec.calls++
			rec.opts = opts
			b, _ := io.ReadAll(r)
			rec.content = string(b)
			sum.DryRun = opts.DryRun
			return sum, err
		},
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		fw, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env apperr.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func TestImportsHandler_UploadExcel(t *testing.T) {
	t.Run("Rejects non-multipart content type", func(t *testing.T) {
		rec := &recordedImport{}
		req := httptest.NewRequest(http.MethodPost, "/api/assets/import", nil)
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		newTestHandler(rec, importer.ImportSummary{}, nil).UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
		assert.Zero(t, rec.calls)
	})

	t.Run("Rejects missing file", func(t *testing.T) {
		rec := &recordedImport{}
		body, ct := multipartBody(t, map[string]string{"dry_run": "true"}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/api/assets/import", body)
		req.Header.Set("Content-Type", ct)

		w := httptest.NewRecorder()
		newTestHandler(rec, importer.ImportSummary{}, nil).UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file is required")
	})

	t.Run("Rejects non-xlsx file", func(t *testing.T) {
		rec := &recordedImport{}
		body, ct := multipartBody(t, nil, "assets.xls", "legacy")
		req := httptest.NewRequest(http.MethodPost, "/api/assets/import", body)
		req.Header.Set("Content-Type", ct)

		w := httptest.NewRecorder()
		newTestHandler(rec, importer.ImportSummary{}, nil).UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FILE_TYPE", errorCode(t, w))
	})

	t.Run("Passes options and returns summary", func(t *testing.T) {
		rec := &recordedImport{}
		var seen importer.ImportSummary
		h := newTestHandler(rec, importer.ImportSummary{Inserted: 3, Updated: 1}, nil)
		h.OnImport = func(s importer.ImportSummary) { seen = s }

		body, ct := multipartBody(t, map[string]string{"dry_run": "true", "max_errors": "5"}, "Assets.XLSX", "workbook-bytes")
		req := httptest.NewRequest(http.MethodPost, "/api/assets/import", body)
		req.Header.Set("Content-Type", ct)

		w := httptest.NewRecorder()
		h.UploadExcel(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, rec.calls)
		assert.True(t, rec.opts.DryRun)
		assert.Equal(t, 5, rec.opts.MaxErrors)
		assert.Equal(t, "workbook-bytes", rec.content)
		assert.Equal(t, 3, seen.Inserted)

		var resp struct {
			Data importer.ImportSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Data.Inserted)
		assert.True(t, resp.Data.DryRun)
	})

	t.Run("Reports import failure with partial summary", func(t *testing.T) {
		rec := &recordedImport{}
		h := newTestHandler(rec, importer.ImportSummary{Errors: 51}, errors.New("too many row errors: 51"))

		body, ct := multipartBody(t, nil, "assets.xlsx", "x")
		req := httptest.NewRequest(http.MethodPost, "/api/assets/import", body)
		req.Header.Set("Content-Type", ct)

		w := httptest.NewRecorder()
		h.UploadExcel(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var env struct {
			Error struct {
				Code    string                 `json:"code"`
				Details importer.ImportSummary `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "IMPORT_FAILED", env.Error.Code)
		assert.Equal(t, 51, env.Error.Details.Errors)
		assert.Equal(t, importer.DefaultMaxErrors, rec.opts.MaxErrors)
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-tracker/pkg/apperr"
	"asset-tracker/pkg/importer"
)

// ImportFunc runs one spreadsheet import.
type ImportFunc func(ctx context.Context, r io.Reader, opts importer.ImportOptions) (importer.ImportSummary, error)

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	Import     ImportFunc
	MaxBytes   int64
	DefaultMap string
	Validator  importer.Validator
	Logger     *zap.Logger
	// OnImport, when set, receives the summary of every finished import.
	OnImport func(importer.ImportSummary)
}

// NewImportsHandler creates a new imports handler writing through db.
func NewImportsHandler(db *pgxpool.Pool, v importer.Validator, logger *zap.Logger) *ImportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportsHandler{
		Import: func(ctx context.Context, r io.Reader, opts importer.ImportOptions) (importer.ImportSummary, error) {
			return importer.ImportExcel(ctx, db, r, opts)
		},
		MaxBytes:  20 << 20, // 20 MB
		Validator: v,
		Logger:    logger,
	}
}

// UploadExcel handles Excel file uploads for asset import
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "content-type must be multipart/form-data")
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid multipart form: "+err.Error())
		return
	}

	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))
	maxErrors := importer.DefaultMaxErrors
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "file is required: "+err.Error())
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "only .xlsx files are accepted")
		return
	}

	sum, impErr := h.Import(r.Context(), file, importer.ImportOptions{
		MappingPath: h.DefaultMap,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
		Validator:   h.Validator,
	})
	if h.OnImport != nil {
		h.OnImport(sum)
	}
	if impErr != nil {
		h.logger().Warn("excel import failed",
			zap.String("file", header.Filename),
			zap.Bool("dry_run", dryRun),
			zap.Error(impErr))
		writeJSON(w, http.StatusUnprocessableEntity, apperr.NewEnvelope("IMPORT_FAILED", impErr.Error(), sum))
		return
	}

	h.logger().Info("excel import finished",
		zap.String("file", header.Filename),
		zap.Bool("dry_run", dryRun),
		zap.Int("inserted", sum.Inserted),
		zap.Int("updated", sum.Updated),
		zap.Int("errors", sum.Errors))
	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"filename":  header.Filename,
		},
	})
}

func (h *ImportsHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apperr.NewEnvelope(code, message, nil))
}

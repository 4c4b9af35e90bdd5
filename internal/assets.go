package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"asset-tracker/internal/store"
	"asset-tracker/internal/validation"
	"asset-tracker/pkg/models"
)

// AssetRepository is the persistence the asset handlers need.
// *store.AssetStore satisfies it.
type AssetRepository interface {
	List(ctx context.Context, p store.ListParams) ([]models.Asset, int, error)
	Get(ctx context.Context, id int64) (models.Asset, error)
	Create(ctx context.Context, in models.AssetInput) (models.Asset, error)
	Update(ctx context.Context, id int64, u models.UpdateAssetRequest) (models.Asset, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

const maxBodyBytes = 1 << 20

// listAssets handles asset listing with filters and pagination
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	params, errs := parseListParams(r)
	if errs != nil {
		writeValidation(w, "Invalid query parameters", errs)
		return
	}

	assets, total, err := s.Store.List(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AssetList{
		Assets:     assets,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: models.TotalPages(total, params.PageSize),
	})
}

// getAsset handles getting a single asset by ID
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}
	a, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// createAsset handles creating a new asset
func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	var in models.CreateAssetRequest
	if !decodeBody(w, r, &in) {
		return
	}
	validation.Normalize(&in)
	if err := s.Validator.Struct(in); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	a, err := s.Store.Create(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/assets/"+strconv.FormatInt(a.ID, 10))
	writeJSON(w, http.StatusCreated, a)
}

// updateAsset applies the fields present in the body. An empty body returns
// the asset unchanged.
func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}
	var u models.UpdateAssetRequest
	if !decodeBody(w, r, &u) {
		return
	}
	validation.NormalizeUpdate(&u)

	if u.Empty() {
		a, err := s.Store.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	if err := s.Validator.Struct(u); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	a, err := s.Store.Update(r.Context(), id, u)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// deleteAsset handles deleting an asset
func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}
	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Store.Categories(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) listStatuses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusStrings())
}

func (s *Server) assetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeValidation(w, "Invalid asset id", map[string]string{"id": "Asset id must be a positive integer"})
	}
	return id, ok
}

// decodeBody reads a JSON body into dst, writing a 422 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		writeValidation(w, msg, nil)
		return false
	}
	return true
}

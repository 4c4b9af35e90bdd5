package internal

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-tracker/internal/auth"
	"asset-tracker/internal/config"
	"asset-tracker/internal/handlers"
	"asset-tracker/internal/validation"
	"asset-tracker/pkg/importer"
)

//go:embed openapi
var openapiFS embed.FS

// Deps are the collaborators NewServer wires into the router.
type Deps struct {
	Config *config.Config
	Store  AssetRepository
	// Pool backs spreadsheet imports. The import route is not mounted when nil.
	Pool   *pgxpool.Pool
	Logger *zap.Logger
}

type Server struct {
	Router     *chi.Mux
	Store      AssetRepository
	Pool       *pgxpool.Pool
	Validator  *validation.Validator
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Logger     *zap.Logger
	cfg        *config.Config
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{CORSAllowedOrigins: []string{"http://localhost:3000"}}
	}

	s := &Server{
		Router:     chi.NewRouter(),
		Store:      d.Store,
		Pool:       d.Pool,
		Validator:  validation.New(),
		JWTManager: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry),
		Metrics:    NewMetrics(),
		Logger:     logger,
		cfg:        cfg,
	}

	s.Router.Use(RequestID)
	s.Router.Use(RequestLogger(logger))
	s.Router.Use(Recoverer(logger))
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "X-Token-Expires-At", "X-Token-Expires-In"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFoundRoute, "Resource not found", nil)
	})
	s.Router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethod, "Method not allowed", nil)
	})

	// Public routes
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	s.Router.Get("/dbping", s.dbPing)
	s.mountDocs(s.Router)

	s.Router.Route("/api", func(r chi.Router) {
		r.Use(auth.Optional(cfg.AuthEnabled, auth.AuthMiddleware(s.JWTManager)))
		s.mountAssetRoutes(r)
	})

	return s
}

// ServeHTTP lets the server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Close releases the import pool. The store's *sql.DB is owned by the caller.
func (s *Server) Close(_ context.Context) error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Warn("database ping failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "Database unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"db": "ok"})
}

// mountAssetRoutes mounts the asset resource. Write routes are role-guarded
// when auth is enabled.
func (s *Server) mountAssetRoutes(r chi.Router) {
	editors := auth.Optional(s.cfg.AuthEnabled, auth.MustRole(auth.RoleEditor, auth.RoleAdmin))
	admins := auth.Optional(s.cfg.AuthEnabled, auth.MustRole(auth.RoleAdmin))

	r.Route("/assets", func(r chi.Router) {
		r.Get("/", s.listAssets)
		r.Get("/categories", s.listCategories)
		r.Get("/statuses", s.listStatuses)
		r.With(editors).Post("/", s.createAsset)

		if s.Pool != nil {
			ih := handlers.NewImportsHandler(s.Pool, s.Validator, s.Logger)
			ih.OnImport = func(sum importer.ImportSummary) {
				s.Metrics.ObserveImport(sum)
			}
			r.With(editors).Post("/import", ih.UploadExcel)
		}

		r.Get("/{id}", s.getAsset)
		r.With(editors).Put("/{id}", s.updateAsset)
		r.With(admins).Delete("/{id}", s.deleteAsset)
	})
}

// mountDocs serves the OpenAPI document and Swagger UI
func (s *Server) mountDocs(mux *chi.Mux) {
	if !s.cfg.EnableSwagger {
		return
	}

	mux.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openapiFS.ReadFile("openapi/openapi.yaml")
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, "Failed to read OpenAPI document", nil)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(data)
	})

	mux.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(docsPage))
	})
}

const docsPage = `<!doctype html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Asset Tracker API - Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css">
    <style>
        body { margin: 0; background: #f7f7f7; }
        .swagger-ui .topbar { background: #1f2937; border-bottom: 3px solid #3b82f6; }
        .swagger-ui .topbar .download-url-wrapper { display: none; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: '/openapi.yaml',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis],
                tryItOutEnabled: true
            });
        };
    </script>
</body>
</html>`

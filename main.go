package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/creditfolio/src/analytics"
	"github.com/username/creditfolio/src/audit"
	"github.com/username/creditfolio/src/config"
	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/extractor"
	"github.com/username/creditfolio/src/handlers"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/normalize"
	"github.com/username/creditfolio/src/processors"
	"github.com/username/creditfolio/src/security"
	"github.com/username/creditfolio/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}
		if config.Cfg.PortalBaseURL != "" {
			allowedOrigins[strings.TrimSuffix(config.Cfg.PortalBaseURL, "/portal")] = true
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Creditfolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Loading audit rules...")
	rules, err := audit.LoadRules(audit.CandidatePaths(config.Cfg.RulesPathOverride)...)
	if err != nil {
		logger.L.Error("Failed to load audit rules", "error", err)
		os.Exit(1)
	}
	logger.L.Info("Audit rules loaded.", "count", len(rules))

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()

	docExtractor, err := extractor.NewCommandExtractor(config.Cfg.ExtractorCommand, config.Cfg.ExtractorTimeout)
	if err != nil {
		logger.L.Error("Failed to configure document extractor", "error", err)
		os.Exit(1)
	}

	pipeline := services.NewAuditPipeline(
		normalize.DefaultFieldMap(),
		processors.NewTradelineMerger(),
		audit.NewEngine(rules),
	)
	reportService := services.NewReportService(pipeline, docExtractor, reportCache)
	entitlementService := services.NewEntitlementService()
	letterService := services.NewLetterService()
	recorder := analytics.LogRecorder{}

	authMiddleware := handlers.NewAuthMiddleware(authService)
	uploadHandler := handlers.NewUploadHandler(reportService, entitlementService, emailService, recorder)
	reportHandler := handlers.NewReportHandler(reportService)
	clientHandler := handlers.NewClientHandler(authService)
	portalHandler := handlers.NewPortalHandler(authService, reportService)
	letterHandler := handlers.NewLetterHandler(reportService, letterService, emailService)
	billingHandler := handlers.NewBillingHandler(entitlementService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes (no CSRF needed for these GETs)
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)

	// CSRF and Auth middleware for protected API routes
	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(http.HandlerFunc(authMiddleware.Wrap(handler)))
	}

	apiRouter.Handle("POST /api/upload", applyCsrfAndAuth(uploadHandler.HandleUpload))

	apiRouter.Handle("GET /api/reports", applyCsrfAndAuth(reportHandler.HandleListReports))
	apiRouter.Handle("GET /api/reports/{id}", applyCsrfAndAuth(reportHandler.HandleGetReport))
	apiRouter.Handle("DELETE /api/reports/{id}", applyCsrfAndAuth(reportHandler.HandleDeleteReport))
	apiRouter.Handle("GET /api/reports/{id}/export", applyCsrfAndAuth(reportHandler.HandleExportReport))
	apiRouter.Handle("POST /api/reports/{id}/letters", applyCsrfAndAuth(letterHandler.HandleGenerateLetters))

	apiRouter.Handle("POST /api/clients", applyCsrfAndAuth(clientHandler.HandleCreateClient))
	apiRouter.Handle("GET /api/clients", applyCsrfAndAuth(clientHandler.HandleListClients))
	apiRouter.Handle("GET /api/clients/{id}", applyCsrfAndAuth(clientHandler.HandleGetClient))
	apiRouter.Handle("PUT /api/clients/{id}", applyCsrfAndAuth(clientHandler.HandleUpdateClient))
	apiRouter.Handle("DELETE /api/clients/{id}", applyCsrfAndAuth(clientHandler.HandleDeleteClient))
	apiRouter.Handle("POST /api/clients/{id}/portal-code", applyCsrfAndAuth(clientHandler.HandleIssuePortalCode))

	apiRouter.Handle("GET /api/billing/entitlement", applyCsrfAndAuth(billingHandler.HandleGetEntitlement))
	apiRouter.Handle("POST /api/billing/entitlement", applyCsrfAndAuth(billingHandler.HandleEntitlementSync))

	// The portal has no operator session; the access code in the body is
	// the credential, so only CSRF applies.
	apiRouter.Handle("POST /api/portal/summary", csrfProtection(http.HandlerFunc(portalHandler.HandlePortalSummary)))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "CREDITFOLIO Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}

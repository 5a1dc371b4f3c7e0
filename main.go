package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"trial-hand/config"
	"trial-hand/database"
	"trial-hand/models"
	"trial-hand/registry"
	"trial-hand/registry/clinicaltrials"
	"trial-hand/services"
	"trial-hand/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var trialsIngestedCounter prometheus.Counter

func init() {
	trialsIngestedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trials_ingested_total",
			Help: "Total number of trial records ingested into the database.",
		},
	)
	prometheus.MustRegister(trialsIngestedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to trials database", zap.Error(err))
	}
	logging.Info("Successfully connected to trials database.")

	logging.Info("Running database migration...")
	if err := database.Migrate(db, logging); err != nil {
		logging.Fatal("Database migration failed", zap.Error(err))
	}

	// Setup Registry Client
	var reg registry.Registry = clinicaltrials.NewFetcher(cfg, logging)
	logging.Info("Registry client loaded", zap.String("registry", reg.Name()))

	// Setup Services
	ingestService := services.NewIngestService(db, logging)
	qualityService := services.NewQualityService(db, logging)

	maintenanceService := services.NewMaintenanceService(db, cfg, nil, logging)
	if cfg.S3Enabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		maintenanceService.S3Client = s3Client
		logging.Info("Offsite backups enabled", zap.String("bucket", cfg.BackupS3Bucket))
	}

	// Setup Router (gin.Default bringt Logger und Recovery bereits mit)
	router := gin.Default()
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupTrialRoutes(router, ingestService, logging)
	setupRegistryRoutes(router, reg, ingestService, logging)
	setupQualityRoutes(router, qualityService, logging)
	setupMaintenanceRoutes(router, maintenanceService, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.MaintenanceSchedule, func() {
		logging.Info("Running scheduled maintenance job...")
		res, err := maintenanceService.Run(context.Background(), "scheduled")
		if err != nil {
			logging.Error("Scheduled maintenance failed to record its log", zap.Error(err))
		} else if res.Fatal {
			logging.Error("Scheduled maintenance completed with fatal backup failure")
		} else {
			logging.Info("Scheduled maintenance completed")
			if err := maintenanceService.ValidateRestore(context.Background()); err != nil {
				logging.Error("Restore validation failed", zap.Error(err))
			}
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupTrialRoutes(router *gin.Engine, ingest *services.IngestService, log *zap.Logger) {
	rg := router.Group("/trials")

	// Direkter Ingest eines einzelnen Datensatzes (z.B. aus n8n oder Skripten)
	rg.POST("/ingest", func(c *gin.Context) {
		var rec models.TrialRecord
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: nct_id required"})
			return
		}
		if err := ingest.UpsertTrial(c.Request.Context(), &rec); err != nil {
			if errors.Is(err, services.ErrInvalidNCTID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if services.IsIntegrityViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "record conflicts with existing data"})
				return
			}
			log.Error("Trial ingest failed", zap.String("nct_id", rec.NCTID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save trial"})
			return
		}
		trialsIngestedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"nct_id": rec.NCTID, "message": "trial saved"})
	})

	rg.GET("/", func(c *gin.Context) {
		var f services.SearchFilters
		if err := c.ShouldBindQuery(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
			return
		}
		trials, err := ingest.ListTrials(c.Request.Context(), f)
		if err != nil {
			log.Error("Database query for trials failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, trials)
	})

	rg.GET("/stats", func(c *gin.Context) {
		stats, err := ingest.Statistics(c.Request.Context())
		if err != nil {
			log.Error("Statistics query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	rg.GET("/search", func(c *gin.Context) {
		term := c.Query("q")
		var f services.SearchFilters
		if err := c.ShouldBindQuery(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
			return
		}
		trials, err := ingest.SearchTrials(c.Request.Context(), term, f)
		if err != nil {
			log.Error("Trial search failed", zap.String("term", term), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, trials)
	})

	rg.GET("/export", func(c *gin.Context) {
		format := c.DefaultQuery("format", services.ExportFormatJSON)
		filename := "trials_export_" + time.Now().UTC().Format("20060102_150405") + "." + format

		switch format {
		case services.ExportFormatJSON:
			c.Header("Content-Type", "application/json")
		case services.ExportFormatCSV:
			c.Header("Content-Type", "text/csv")
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrUnsupportedExportFormat.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

		if err := ingest.ExportTrials(c.Request.Context(), format, c.Writer); err != nil {
			log.Error("Trial export failed", zap.String("format", format), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
	})

	rg.GET("/:nct_id", func(c *gin.Context) {
		nctID := c.Param("nct_id")
		trial, err := ingest.GetTrial(c.Request.Context(), nctID)
		if err != nil {
			if errors.Is(err, services.ErrTrialNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "trial not found"})
				return
			}
			log.Error("Trial lookup failed", zap.String("nct_id", nctID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, trial)
	})

	rg.DELETE("/:nct_id", func(c *gin.Context) {
		nctID := c.Param("nct_id")
		if err := ingest.DeleteTrial(c.Request.Context(), nctID); err != nil {
			if errors.Is(err, services.ErrTrialNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "trial not found"})
				return
			}
			log.Error("Trial deletion failed", zap.String("nct_id", nctID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete trial"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"nct_id": nctID, "message": "trial deleted"})
	})
}

// setupRegistryRoutes konfiguriert den kombinierten Fetch+Ingest-Endpunkt.
func setupRegistryRoutes(router *gin.Engine, reg registry.Registry, ingest *services.IngestService, log *zap.Logger) {
	router.POST("/search-trials", func(c *gin.Context) {
		var req struct {
			Query      string `json:"query" binding:"required"`
			MaxResults int    `json:"max_results"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'query' field is required."})
			return
		}

		records, err := reg.Search(c.Request.Context(), req.Query, req.MaxResults)
		if err != nil {
			log.Error("Registry search failed", zap.String("query", req.Query), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "registry search failed"})
			return
		}

		// Jeder Datensatz wird einzeln geschrieben; Fehler eines Datensatzes
		// verhindern die übrigen nicht. Retries entscheidet der Aufrufer.
		type itemResult struct {
			NCTID string `json:"nct_id"`
			Saved bool   `json:"saved"`
			Error string `json:"error,omitempty"`
		}
		results := make([]itemResult, 0, len(records))
		saved := 0
		for _, rec := range records {
			res := itemResult{NCTID: rec.NCTID}
			if err := ingest.UpsertTrial(c.Request.Context(), rec); err != nil {
				res.Error = err.Error()
			} else {
				res.Saved = true
				saved++
			}
			results = append(results, res)
		}
		trialsIngestedCounter.Add(float64(saved))

		log.Info("Registry search-and-ingest completed",
			zap.String("query", req.Query),
			zap.Int("found", len(records)),
			zap.Int("saved", saved))
		c.JSON(http.StatusOK, gin.H{"found": len(records), "saved": saved, "results": results})
	})
}

func setupQualityRoutes(router *gin.Engine, quality *services.QualityService, log *zap.Logger) {
	rg := router.Group("/quality")
	rg.GET("/report", func(c *gin.Context) {
		report, err := quality.Run(c.Request.Context())
		if err != nil {
			log.Error("Quality report failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "quality report failed"})
			return
		}
		c.JSON(http.StatusOK, report)
	})
}

func setupMaintenanceRoutes(router *gin.Engine, maintenance *services.MaintenanceService, log *zap.Logger) {
	rg := router.Group("/maintenance")

	rg.POST("/run", func(c *gin.Context) {
		res, err := maintenance.Run(c.Request.Context(), "manual")
		if err != nil {
			log.Error("Maintenance run could not persist its log", zap.Error(err))
		}
		c.JSON(http.StatusOK, res)
	})

	rg.POST("/backup", func(c *gin.Context) {
		backupType := c.DefaultQuery("type", "full")
		path, err := maintenance.CreateBackup(c.Request.Context(), backupType)
		if err != nil {
			log.Error("Manual backup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "backup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path, "message": "backup created"})
	})

	rg.POST("/restore", func(c *gin.Context) {
		var req struct {
			BackupPath string `json:"backup_path" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'backup_path' field is required."})
			return
		}
		if err := maintenance.Restore(c.Request.Context(), req.BackupPath); err != nil {
			log.Error("Restore failed", zap.String("path", req.BackupPath), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "restore completed"})
	})

	rg.GET("/health", func(c *gin.Context) {
		report, err := maintenance.CheckHealth(c.Request.Context())
		if err != nil {
			log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "health check failed"})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	rg.GET("/backups", func(c *gin.Context) {
		backups, err := maintenance.ListBackups()
		if err != nil {
			log.Error("Backup listing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list backups"})
			return
		}
		c.JSON(http.StatusOK, backups)
	})
}

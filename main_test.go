package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trial-hand/database"
	"trial-hand/models"
	"trial-hand/services"
)

func newTestRouter(t *testing.T) (*gin.Engine, *services.IngestService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	svc := services.NewIngestService(db, zap.NewNop())
	router := gin.New()
	setupTrialRoutes(router, svc, zap.NewNop())
	return router, svc
}

func seedRouterTrial(t *testing.T, svc *services.IngestService, nctID, title, status string) {
	t.Helper()
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := &models.TrialRecord{
		NCTID:      nctID,
		BriefTitle: title,
		Status:     status,
		StartDate:  &start,
		Conditions: []string{"Type 2 Diabetes"},
	}
	require.NoError(t, svc.UpsertTrial(context.Background(), rec))
}

func TestTrialSearchEndpointFiltersByStatus(t *testing.T) {
	router, svc := newTestRouter(t)
	seedRouterTrial(t, svc, "NCT00000001", "Metformin Study", models.StatusRecruiting)
	seedRouterTrial(t, svc, "NCT00000002", "Insulin Study", models.StatusCompleted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trials/search?q=study&status=COMPLETED", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var hits []models.Trial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "NCT00000002", hits[0].NCTID)
}

func TestTrialExportEndpoint(t *testing.T) {
	router, svc := newTestRouter(t)
	seedRouterTrial(t, svc, "NCT00000001", "Metformin Study", models.StatusRecruiting)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trials/export?format=csv", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "NCT00000001")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/trials/export?format=xml", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrialGetEndpointNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trials/NCT99999999", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package services

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trial-hand/config"
	"trial-hand/models"
	"trial-hand/storage"
)

// Stages eines Wartungslaufs. Jeder Lauf durchläuft sie in dieser Reihenfolge;
// ein Fehlschlag wird protokolliert und der Lauf geht weiter. Einzige Ausnahme
// ist das Backup: ohne frisches Backup wird OPTIMIZING übersprungen und der
// Lauf gilt als fatal.
const (
	StageIdle        = "IDLE"
	StageBackingUp   = "BACKING_UP"
	StageCleaning    = "CLEANING_OLD_BACKUPS"
	StageOptimizing  = "OPTIMIZING"
	StageHealthCheck = "HEALTH_CHECK"
	StageDone        = "DONE"
)

const backupFilePrefix = "trials_backup_"

// StageOutcome hält den Ausgang einer einzelnen Stage.
type StageOutcome struct {
	Stage   string `json:"stage"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunResult ist das Gesamtergebnis eines Wartungslaufs.
type RunResult struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	FinalState string         `json:"final_state"`
	Fatal      bool           `json:"fatal"`
	Stages     []StageOutcome `json:"stages"`
	Health     *HealthReport  `json:"health,omitempty"`
}

// BackupInfo beschreibt ein lokales Backup-Artefakt.
type BackupInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
}

// TableSize ist die Größe einer einzelnen Tabelle im Health-Report.
type TableSize struct {
	TableName string `json:"table_name"`
	Size      string `json:"size"`
	SizeBytes int64  `json:"size_bytes"`
}

// LongQuery ist eine Abfrage, die länger als die konfigurierte Schwelle läuft.
type LongQuery struct {
	PID      int    `json:"pid"`
	Duration string `json:"duration"`
	Query    string `json:"query"`
}

// HealthReport fasst Speichergröße, Verbindungen und Langläufer zusammen (read-only).
type HealthReport struct {
	DatabaseSize       string      `json:"database_size"`
	TableSizes         []TableSize `json:"table_sizes"`
	ActiveConnections  int         `json:"active_connections"`
	LongRunningQueries []LongQuery `json:"long_running_queries"`
	Timestamp          time.Time   `json:"timestamp"`
}

// MaintenanceService führt die periodischen Custodial-Operationen aus: Backup,
// Backup-Rotation, Statistik-Refresh/Vacuum und Health-Check. Entkoppelt vom
// Request-Serving; Vacuum-Läufe gehören in verkehrsarme Fenster.
type MaintenanceService struct {
	DB       *gorm.DB
	Config   *config.Config
	S3Client *s3.Client // nil, wenn kein Offsite-Backup konfiguriert ist
	Logger   *zap.Logger
}

// NewMaintenanceService erstellt eine neue Instanz des MaintenanceService.
func NewMaintenanceService(db *gorm.DB, cfg *config.Config, s3Client *s3.Client, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{DB: db, Config: cfg, S3Client: s3Client, Logger: logger}
}

// stageFn ist eine einzelne Stage: liefert eine Beschreibung des Ergebnisses oder
// einen Fehler. Die Zerlegung hält die Ablaufsteuerung separat testbar.
type stageFn struct {
	stage string
	fn    func(ctx context.Context) (string, error)
}

// runStages führt die Stages der Reihe nach aus. Scheitert BACKING_UP, wird
// OPTIMIZING übersprungen und der Lauf als fatal markiert; alle übrigen Fehler
// werden nur protokolliert.
func runStages(ctx context.Context, stages []stageFn) *RunResult {
	res := &RunResult{StartedAt: time.Now().UTC(), FinalState: StageIdle}
	backupFailed := false

	for _, s := range stages {
		res.FinalState = s.stage

		if s.stage == StageOptimizing && backupFailed {
			res.Stages = append(res.Stages, StageOutcome{
				Stage:   s.stage,
				Skipped: true,
				Detail:  "skipped: no fresh backup",
			})
			continue
		}

		detail, err := s.fn(ctx)
		outcome := StageOutcome{Stage: s.stage, OK: err == nil, Detail: detail}
		if err != nil {
			outcome.Error = err.Error()
			if s.stage == StageBackingUp {
				backupFailed = true
				res.Fatal = true
			}
		}
		res.Stages = append(res.Stages, outcome)
	}

	res.FinalState = StageDone
	res.FinishedAt = time.Now().UTC()
	return res
}

// Run führt einen kompletten Wartungslauf aus und persistiert das Ergebnis als
// MaintenanceLog-Zeile. Der Fehler-Rückgabewert betrifft nur das Persistieren;
// Stage-Fehler stehen im RunResult.
func (s *MaintenanceService) Run(ctx context.Context, jobType string) (*RunResult, error) {
	log := s.Logger.With(zap.String("job_type", jobType))
	log.Info("Starte Wartungslauf")

	var health *HealthReport
	stages := []stageFn{
		{StageBackingUp, func(ctx context.Context) (string, error) {
			path, err := s.CreateBackup(ctx, "full")
			if err != nil {
				return "", err
			}
			return "backup created: " + path, nil
		}},
		{StageCleaning, func(ctx context.Context) (string, error) {
			removed, err := s.CleanupOldBackups()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("removed %d old backups", removed), nil
		}},
		{StageOptimizing, func(ctx context.Context) (string, error) {
			if err := s.Optimize(ctx); err != nil {
				return "", err
			}
			return "analyze + vacuum completed", nil
		}},
		{StageHealthCheck, func(ctx context.Context) (string, error) {
			h, err := s.CheckHealth(ctx)
			if err != nil {
				return "", err
			}
			health = h
			return fmt.Sprintf("database size %s, %d active connections",
				h.DatabaseSize, h.ActiveConnections), nil
		}},
	}

	res := runStages(ctx, stages)
	res.Health = health

	if err := s.persistLog(ctx, jobType, res); err != nil {
		log.Error("Wartungslog konnte nicht gespeichert werden", zap.Error(err))
		return res, err
	}

	log.Info("Wartungslauf abgeschlossen",
		zap.Bool("fatal", res.Fatal),
		zap.Duration("duration", res.FinishedAt.Sub(res.StartedAt)))
	return res, nil
}

func (s *MaintenanceService) persistLog(ctx context.Context, jobType string, res *RunResult) error {
	var tasks, errs []string
	for _, st := range res.Stages {
		if st.OK {
			tasks = append(tasks, st.Stage+": "+st.Detail)
		} else if !st.Skipped {
			errs = append(errs, st.Stage+": "+st.Error)
		}
	}

	entry := models.MaintenanceLog{
		JobType:    jobType,
		FinalState: res.FinalState,
		Fatal:      res.Fatal,
		DurationMS: res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	}
	entry.TasksCompleted, _ = json.Marshal(tasks)
	entry.Errors, _ = json.Marshal(errs)
	if res.Health != nil {
		entry.HealthReport, _ = json.Marshal(res.Health)
	}
	return s.DB.WithContext(ctx).Create(&entry).Error
}

// CreateBackup erzeugt per pg_dump einen komprimierten Dump unter
// <dir>/trials_backup_<type>_<timestamp>.sql.gz und lädt ihn, falls konfiguriert,
// zusätzlich nach S3 hoch.
func (s *MaintenanceService) CreateBackup(ctx context.Context, backupType string) (string, error) {
	if err := os.MkdirAll(s.Config.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	filename := fmt.Sprintf("%s%s_%s.sql.gz",
		backupFilePrefix, backupType, time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.Config.BackupDir, filename)

	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", s.Config.DBHost,
		"-p", fmt.Sprintf("%d", s.Config.DBPort),
		"-U", s.Config.DBUser,
		"-d", s.Config.DBName,
		"-w",
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+s.Config.DBPassword)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start pg_dump: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, stdout); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	if err := cmd.Wait(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("pg_dump: %w", err)
	}

	s.Logger.Info("Backup erstellt", zap.String("path", path))

	if s.S3Client != nil && s.Config.S3Enabled() {
		data, err := os.ReadFile(path)
		if err != nil {
			return path, fmt.Errorf("read backup for upload: %w", err)
		}
		link, err := storage.UploadBackup(ctx, s.S3Client, s.Config, filename, data)
		if err != nil {
			// Lokales Backup existiert; Offsite-Kopie ist best effort.
			s.Logger.Warn("Offsite-Upload fehlgeschlagen", zap.Error(err))
		} else {
			s.Logger.Info("Backup nach S3 hochgeladen", zap.String("link", link))
		}
	}

	return path, nil
}

// CleanupOldBackups löscht lokale Artefakte, die älter als der konfigurierte
// Aufbewahrungshorizont sind, und gibt die Anzahl der gelöschten Dateien zurück.
func (s *MaintenanceService) CleanupOldBackups() (int, error) {
	entries, err := os.ReadDir(s.Config.BackupDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -s.Config.BackupRetentionDays)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupFilePrefix) || !strings.HasSuffix(e.Name(), ".sql.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.Config.BackupDir, e.Name())); err != nil {
				s.Logger.Warn("Altes Backup konnte nicht gelöscht werden",
					zap.String("filename", e.Name()), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Optimize frischt die Planner-Statistiken auf und gibt toten Speicher frei.
// Idempotent; wiederholte Läufe kosten nur Zeit, nie Korrektheit.
func (s *MaintenanceService) Optimize(ctx context.Context) error {
	db := s.DB.WithContext(ctx)
	if err := db.Exec("ANALYZE").Error; err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if err := db.Exec("VACUUM ANALYZE").Error; err != nil {
		return fmt.Errorf("vacuum analyze: %w", err)
	}
	return nil
}

// CheckHealth liefert Speichergröße, Tabellen-Größen, aktive Verbindungen und
// Abfragen über der Laufzeit-Schwelle. Rein lesend.
func (s *MaintenanceService) CheckHealth(ctx context.Context) (*HealthReport, error) {
	db := s.DB.WithContext(ctx)
	report := &HealthReport{Timestamp: time.Now().UTC()}

	if err := db.Raw(`SELECT pg_size_pretty(pg_database_size(current_database()))`).
		Scan(&report.DatabaseSize).Error; err != nil {
		return nil, fmt.Errorf("database size: %w", err)
	}

	if err := db.Raw(`
		SELECT tablename AS table_name,
			pg_size_pretty(pg_total_relation_size('public.'||tablename)) AS size,
			pg_total_relation_size('public.'||tablename) AS size_bytes
		FROM pg_tables
		WHERE schemaname = 'public'
		ORDER BY pg_total_relation_size('public.'||tablename) DESC`).
		Scan(&report.TableSizes).Error; err != nil {
		return nil, fmt.Errorf("table sizes: %w", err)
	}

	if err := db.Raw(`SELECT count(*) FROM pg_stat_activity`).
		Scan(&report.ActiveConnections).Error; err != nil {
		return nil, fmt.Errorf("connection count: %w", err)
	}

	if err := db.Raw(`
		SELECT pid,
			(now() - query_start)::text AS duration,
			query
		FROM pg_stat_activity
		WHERE state = 'active'
		AND now() - query_start > ?::interval`, s.Config.SlowQueryThreshold).
		Scan(&report.LongRunningQueries).Error; err != nil {
		return nil, fmt.Errorf("long running queries: %w", err)
	}

	return report, nil
}

// Restore spielt ein Backup per psql in die konfigurierte Datenbank zurück.
func (s *MaintenanceService) Restore(ctx context.Context, backupPath string) error {
	if err := s.restoreInto(ctx, s.Config.DBName, backupPath); err != nil {
		return err
	}
	s.Logger.Info("Backup wiederhergestellt", zap.String("path", backupPath))
	return nil
}

// ValidateRestore spielt das jüngste Backup in eine Scratch-Datenbank ein und
// verwirft sie danach wieder. Läuft zusammen mit dem Wartungsplan, damit der
// Restore-Pfad nachweislich funktioniert und nicht erst im Ernstfall getestet wird.
func (s *MaintenanceService) ValidateRestore(ctx context.Context) error {
	backups, err := s.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backup available to validate")
	}
	latest := backups[0]

	scratch := s.Config.DBName + "_restore_check"
	if err := s.runPSQL(ctx, "postgres", "-c", fmt.Sprintf(`DROP DATABASE IF EXISTS %q`, scratch)); err != nil {
		return fmt.Errorf("drop scratch database: %w", err)
	}
	if err := s.runPSQL(ctx, "postgres", "-c", fmt.Sprintf(`CREATE DATABASE %q`, scratch)); err != nil {
		return fmt.Errorf("create scratch database: %w", err)
	}
	defer func() {
		if err := s.runPSQL(context.Background(), "postgres", "-c", fmt.Sprintf(`DROP DATABASE IF EXISTS %q`, scratch)); err != nil {
			s.Logger.Warn("Scratch-Datenbank konnte nicht entfernt werden", zap.Error(err))
		}
	}()

	if err := s.restoreInto(ctx, scratch, latest.Path); err != nil {
		return fmt.Errorf("test restore of %s: %w", latest.Filename, err)
	}
	s.Logger.Info("Restore-Validierung erfolgreich", zap.String("backup", latest.Filename))
	return nil
}

// restoreInto entpackt das Artefakt bei Bedarf und führt psql -f gegen dbName aus.
func (s *MaintenanceService) restoreInto(ctx context.Context, dbName, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	restorePath := backupPath
	if strings.HasSuffix(backupPath, ".gz") {
		tmp, err := decompressBackup(backupPath)
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		restorePath = tmp
	}

	return s.runPSQL(ctx, dbName, "-f", restorePath)
}

// runPSQL führt psql gegen die angegebene Datenbank aus; Ausgabe landet im Fehler.
func (s *MaintenanceService) runPSQL(ctx context.Context, dbName string, args ...string) error {
	base := []string{
		"-h", s.Config.DBHost,
		"-p", fmt.Sprintf("%d", s.Config.DBPort),
		"-U", s.Config.DBUser,
		"-d", dbName,
		"-w",
	}
	cmd := exec.CommandContext(ctx, "psql", append(base, args...)...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+s.Config.DBPassword)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("psql: %w: %s", err, string(out))
	}
	return nil
}

// decompressBackup entpackt ein .sql.gz neben das Original und gibt den Pfad zurück.
func decompressBackup(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	tmpPath := strings.TrimSuffix(path, ".gz") + ".restore.tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, gz); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// ListBackups listet die lokalen Backup-Artefakte, neueste zuerst.
func (s *MaintenanceService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.Config.BackupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupFilePrefix) || !strings.HasSuffix(e.Name(), ".sql.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename: e.Name(),
			Path:     filepath.Join(s.Config.BackupDir, e.Name()),
			Size:     info.Size(),
			Created:  info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}

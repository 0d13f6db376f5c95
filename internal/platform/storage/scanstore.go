// Package storage persists one durable record per completed assessment for
// later dashboard aggregation. The assessment core only ever writes here;
// reads belong to the dashboard transport.
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trulogo-server-go/internal/domain/mark"
	platformerrors "trulogo-server-go/internal/platform/errors"
)

// Scan is the GORM model for one assessment record.
type Scan struct {
	ID           uint           `gorm:"primaryKey"`
	ScanID       string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"scan_id"`
	Filename     string         `gorm:"index"                                 json:"filename"`
	BrandName    string         `                                             json:"brand_name"`
	RiskScore    float64        `                                             json:"risk_score"`
	RiskLevel    string         `gorm:"index"                                 json:"risk_level"`
	AnalysisData datatypes.JSON `                                             json:"analysis_data,omitempty"`
	CreatedAt    time.Time      `gorm:"index"                                 json:"created_at"`
}

// Stats aggregates scan counts for the dashboard.
type Stats struct {
	SafeScans  int64 `json:"safeScans"`
	RiskAlerts int64 `json:"riskAlerts"`
}

// ScanStore wraps the sqlite database holding assessment records.
type ScanStore struct {
	db *gorm.DB
}

// OpenScanStore opens (creating if needed) the sqlite database at path.
func OpenScanStore(path string) (*ScanStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindStorage, "scanstore.open",
				"create data directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "scanstore.open",
			"open database", err)
	}

	if err := db.AutoMigrate(&Scan{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "scanstore.open",
			"migrate scans table", err)
	}

	return &ScanStore{db: db}, nil
}

// Save persists one assessment record. The payload is serialized to JSON as
// the full analysis blob.
func (s *ScanStore) Save(ctx context.Context, identity string, level mark.RiskLevel, score float64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "scanstore.save",
			"serialize assessment payload", err)
	}

	record := Scan{
		ScanID:       uuid.NewString(),
		Filename:     identity,
		BrandName:    identity,
		RiskScore:    score,
		RiskLevel:    string(level),
		AnalysisData: datatypes.JSON(data),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "scanstore.save",
			"insert scan record", err)
	}
	return nil
}

// GetStats counts safe scans (Low) versus risk alerts (everything else).
func (s *ScanStore) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&Scan{}).
		Where("risk_level = ?", string(mark.RiskLow)).
		Count(&stats.SafeScans).Error; err != nil {
		return Stats{}, platformerrors.Wrap(platformerrors.KindStorage, "scanstore.stats",
			"count safe scans", err)
	}
	if err := s.db.WithContext(ctx).Model(&Scan{}).
		Where("risk_level <> ?", string(mark.RiskLow)).
		Count(&stats.RiskAlerts).Error; err != nil {
		return Stats{}, platformerrors.Wrap(platformerrors.KindStorage, "scanstore.stats",
			"count risk alerts", err)
	}
	return stats, nil
}

// Recent returns the latest records, newest first.
func (s *ScanStore) Recent(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = 5
	}
	var scans []Scan
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&scans).Error; err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "scanstore.recent",
			"list recent scans", err)
	}
	return scans, nil
}

// Close releases the underlying database handle.
func (s *ScanStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

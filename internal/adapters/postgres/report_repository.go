package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

type reportRepository struct {
	db *gorm.DB
}

func (r *reportRepository) Create(ctx context.Context, report domain.ExistingReport) error {
	rec := existingReportModel{
		ReportID:   report.ReportID,
		IdeaID:     report.IdeaID,
		ReporterID: report.ReporterID,
		URL:        report.URL,
		Note:       report.Note,
		CreatedAt:  report.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, reportID string) (domain.ExistingReport, error) {
	var rec existingReportModel
	if err := r.db.WithContext(ctx).Where("report_id = ?", reportID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ExistingReport{}, domain.ErrNotFound
		}
		return domain.ExistingReport{}, err
	}
	return mapReport(rec), nil
}

func (r *reportRepository) Close(ctx context.Context, reportID string, accepted bool, at time.Time) error {
	col := "rejected_at"
	if accepted {
		col = "accepted_at"
	}
	res := r.db.WithContext(ctx).
		Model(&existingReportModel{}).
		Where("report_id = ? AND accepted_at IS NULL AND rejected_at IS NULL", reportID).
		Update(col, at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var rec existingReportModel
		if err := r.db.WithContext(ctx).Where("report_id = ?", reportID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		return domain.ErrReportAlreadyClosed
	}
	return nil
}

func mapReport(rec existingReportModel) domain.ExistingReport {
	return domain.ExistingReport{
		ReportID:   rec.ReportID,
		IdeaID:     rec.IdeaID,
		ReporterID: rec.ReporterID,
		URL:        rec.URL,
		Note:       rec.Note,
		AcceptedAt: rec.AcceptedAt,
		RejectedAt: rec.RejectedAt,
		CreatedAt:  rec.CreatedAt,
	}
}

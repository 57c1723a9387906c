package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/catalog"
	"github.com/oponmeta/service-checkout/internal/domain/money"
)

// CourseModel is the GORM model for the courses read model.
type CourseModel struct {
	ID         string          `gorm:"type:varchar(64);primaryKey"`
	Title      string          `gorm:"type:varchar(255);not null"`
	BaseAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency   string          `gorm:"type:varchar(3);not null"`
	UpdatedAt  time.Time       `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (CourseModel) TableName() string { return "courses" }

// GormCourseRepository implements catalog.Repository using GORM.
type GormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GormCourseRepository.
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{db: db}
}

// FindByID returns a course by id.
func (r *GormCourseRepository) FindByID(ctx context.Context, id string) (*catalog.Course, error) {
	var model CourseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Course", id)
		}
		return nil, err
	}
	return &catalog.Course{
		ID:        model.ID,
		Title:     model.Title,
		BasePrice: money.New(model.BaseAmount, model.Currency),
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// Upsert inserts or replaces a course.
func (r *GormCourseRepository) Upsert(ctx context.Context, c *catalog.Course) error {
	model := CourseModel{
		ID:         c.ID,
		Title:      c.Title,
		BaseAmount: c.BasePrice.Amount,
		Currency:   c.BasePrice.Currency,
		UpdatedAt:  c.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "base_amount", "currency", "updated_at"}),
	}).Create(&model).Error
}

// Delete removes a course. Deleting an unknown course is a no-op.
func (r *GormCourseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&CourseModel{}).Error
}

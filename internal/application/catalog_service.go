package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/catalog"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/events"
)

// CatalogService maintains the local course read model.
type CatalogService struct {
	repo   catalog.Repository
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo catalog.Repository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// UpsertCourse creates or replaces a course's price.
func (s *CatalogService) UpsertCourse(ctx context.Context, id string, req UpsertCourseRequest) (*catalog.Course, error) {
	course, err := catalog.NewCourse(id, req.Title, money.New(req.BaseAmount, req.Currency))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, course); err != nil {
		return nil, err
	}
	s.logger.Info("course upserted",
		zap.String("course_id", course.ID),
		zap.String("base_price", course.BasePrice.String()),
	)
	return course, nil
}

// DeleteCourse withdraws a course from sale. Carts that already hold it keep
// their line.
func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// HandleCourseUpserted applies a catalog.course.upserted event.
func (s *CatalogService) HandleCourseUpserted(ctx context.Context, event events.CourseUpsertedEvent) error {
	_, err := s.UpsertCourse(ctx, event.CourseID, UpsertCourseRequest{
		Title:      event.Title,
		BaseAmount: event.BaseAmount,
		Currency:   event.Currency,
	})
	if errors.Is(err, domain.ErrValidation) {
		// Retrying cannot fix a malformed course.
		s.logger.Warn("ignoring invalid course event", zap.String("course_id", event.CourseID), zap.Error(err))
		return nil
	}
	return err
}

// HandleCourseDeleted applies a catalog.course.deleted event.
func (s *CatalogService) HandleCourseDeleted(ctx context.Context, event events.CourseDeletedEvent) error {
	return s.DeleteCourse(ctx, event.CourseID)
}

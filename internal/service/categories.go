package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-service/internal/models"
)

// CategoryService manages a user's categories.
type CategoryService struct {
	store CategoryStore
	log   *logrus.Logger
}

// NewCategoryService initializes a category service
func NewCategoryService(store CategoryStore, log *logrus.Logger) *CategoryService {
	return &CategoryService{store: store, log: log}
}

// Create stores a category owned by userID. Duplicate names are allowed.
func (s *CategoryService) Create(ctx context.Context, userID string, in models.CategoryInput) (*models.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &models.Category{
		Name:        in.Name,
		Description: in.Description,
		UserID:      userID,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": c.ID}).Info("Category created")
	return c, nil
}

// ListAll returns the user's categories ordered by name.
func (s *CategoryService) ListAll(ctx context.Context, userID string) ([]models.Category, error) {
	return s.store.ListCategoriesByUser(ctx, userID)
}

// GetOne fetches a category and checks that userID owns it.
func (s *CategoryService) GetOne(ctx context.Context, id, userID string) (*models.Category, error) {
	c, err := s.store.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return authorize(c, userID, "category")
}

// Update merges the present fields of patch onto the category.
func (s *CategoryService) Update(ctx context.Context, id, userID string, patch models.CategoryPatch) (*models.Category, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	c, err := s.GetOne(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(c)
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": c.ID}).Info("Category updated")
	return c, nil
}

// Delete removes the category. Transactions that referenced it stay, with
// the reference cleared.
func (s *CategoryService) Delete(ctx context.Context, id, userID string) error {
	c, err := s.GetOne(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, c.ID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": c.ID}).Info("Category deleted")
	return nil
}

package services

import (
	"context"
	"strings"

	"cofre/internal/core"
	"cofre/internal/storage"

	"github.com/google/uuid"
)

const defaultCategoryColor = "#64748B"

type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(storage *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: storage}
}

type CategoryInput struct {
	Name  string
	Kind  core.CategoryKind
	Color string
}

type CategoryPatch struct {
	Name  *string
	Kind  *core.CategoryKind
	Color *string
}

func (s *CategoryService) Create(ctx context.Context, ownerID string, in CategoryInput) (core.Category, error) {
	c := core.Category{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    strings.TrimSpace(in.Name),
		Kind:    in.Kind,
		Color:   strings.TrimSpace(in.Color),
	}
	if c.Color == "" {
		c.Color = defaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (core.Category, error) {
	return s.storage.GetCategory(ctx, ownerID, id)
}

func (s *CategoryService) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, ownerID)
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id string, p CategoryPatch) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, err
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Kind != nil {
		c.Kind = *p.Kind
	}
	if p.Color != nil && strings.TrimSpace(*p.Color) != "" {
		c.Color = strings.TrimSpace(*p.Color)
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Delete untags transactions and goals that used the category.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	return s.storage.DeleteCategory(ctx, ownerID, id)
}

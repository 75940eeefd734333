package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type groupRepository interface {
	ListSummaries(ctx context.Context, category models.GroupCategory) ([]models.GroupSummary, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, group *models.Group) error
}

// CreateGroupRequest holds payload for creating groups.
type CreateGroupRequest struct {
	Name     string               `json:"name" validate:"required"`
	Category models.GroupCategory `json:"category" validate:"omitempty,oneof=admin trainee"`
}

// GroupService lists and creates groups.
type GroupService struct {
	repo      groupRepository
	paging    ListingConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(repo groupRepository, paging ListingConfig, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, paging: paging, validator: validate, logger: logger}
}

// List returns one page of groups with their member counts.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) (listing.Page[models.GroupSummary], error) {
	groups, err := s.summaries(ctx, "")
	if err != nil {
		return listing.Page[models.GroupSummary]{}, err
	}
	q := s.paging.query(filter.Page, filter.PerPage, filter.SortBy)
	return listing.Run(groups, q, listing.GroupKeys, groupPredicates(filter)...), nil
}

// ListAll returns every matching group without pagination.
func (s *GroupService) ListAll(ctx context.Context, filter models.GroupFilter) ([]models.GroupSummary, error) {
	groups, err := s.summaries(ctx, "")
	if err != nil {
		return nil, err
	}
	return listing.RunAll(groups, filter.SortBy, listing.GroupKeys, groupPredicates(filter)...), nil
}

// ListByCategory returns the groups of one category, unpaginated.
func (s *GroupService) ListByCategory(ctx context.Context, category models.GroupCategory, sortBy string) ([]models.GroupSummary, error) {
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category must be admin or trainee")
	}
	groups, err := s.summaries(ctx, category)
	if err != nil {
		return nil, err
	}
	return listing.RunAll(groups, sortBy, listing.GroupKeys), nil
}

func (s *GroupService) summaries(ctx context.Context, category models.GroupCategory) ([]models.GroupSummary, error) {
	groups, err := s.repo.ListSummaries(ctx, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

func groupPredicates(filter models.GroupFilter) []listing.Predicate[models.GroupSummary] {
	return []listing.Predicate[models.GroupSummary]{
		listing.Exact(filter.ID, func(g models.GroupSummary) *string { return &g.ID }),
		listing.Text(filter.Name, func(g models.GroupSummary) []string { return []string{g.Name} }),
		listing.Exact(filter.Category, func(g models.GroupSummary) *string {
			category := string(g.Category)
			return &category
		}),
	}
}

// Create adds a group. The category defaults to trainee.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate group name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group name already used")
	}
	category := req.Category
	if category == "" {
		category = models.GroupCategoryTrainee
	}
	group := &models.Group{Name: name, Category: category}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

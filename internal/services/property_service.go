package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/benbjohnson/clock"

	"homenest/internal/models"
	"homenest/internal/policy"
)

// FeaturedLimit is the number of newest properties on the featured list.
const FeaturedLimit = 6

var sortFieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// PropertyStore is the persistence boundary for properties and their embedded reviews.
type PropertyStore interface {
	Ping(ctx context.Context) error
	FindAll(ctx context.Context, q models.PropertyQuery) ([]models.Property, error)
	FindByID(ctx context.Context, id string) (*models.Property, error)
	FindByOwnerEmail(ctx context.Context, email string) ([]models.Property, error)
	FindByReviewerEmail(ctx context.Context, email string) ([]models.Property, error)
	Insert(ctx context.Context, p *models.Property) error
	UpdateByID(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error)
	DeleteByID(ctx context.Context, id string) error
	AppendReview(ctx context.Context, propertyID string, review *models.Review) (*models.Property, error)
	RemoveReview(ctx context.Context, propertyID, reviewID string) error
	PatchReview(ctx context.Context, propertyID, reviewID string, patch models.ReviewPatch) (*models.Property, error)
}

type CreatePropertyInput struct {
	Name             string          `json:"name" validate:"required"`
	Description      string          `json:"description" validate:"required"`
	Category         models.Category `json:"category" validate:"required,oneof=Rent Sale Commercial Land"`
	Price            *float64        `json:"price" validate:"required,min=0"`
	Location         string          `json:"location" validate:"required"`
	ImageURL         string          `json:"imageUrl" validate:"required"`
	UserEmail        string          `json:"userEmail" validate:"required"`
	UserName         string          `json:"userName" validate:"required"`
	UserProfilePhoto string          `json:"userProfilePhoto" validate:"required"`
}

// UpdatePropertyInput is a partial update; absent fields keep their value.
type UpdatePropertyInput struct {
	Name             *string          `json:"name" validate:"omitnil,min=1"`
	Description      *string          `json:"description" validate:"omitnil,min=1"`
	Category         *models.Category `json:"category" validate:"omitnil,oneof=Rent Sale Commercial Land"`
	Price            *float64         `json:"price" validate:"omitnil,min=0"`
	Location         *string          `json:"location" validate:"omitnil,min=1"`
	ImageURL         *string          `json:"imageUrl" validate:"omitnil,min=1"`
	UserEmail        *string          `json:"userEmail"`
	UserName         *string          `json:"userName" validate:"omitnil,min=1"`
	UserProfilePhoto *string          `json:"userProfilePhoto" validate:"omitnil,min=1"`
}

func (in UpdatePropertyInput) patch() models.PropertyPatch {
	return models.PropertyPatch{
		Name:             in.Name,
		Description:      in.Description,
		Category:         in.Category,
		Price:            in.Price,
		Location:         in.Location,
		ImageURL:         in.ImageURL,
		UserName:         in.UserName,
		UserProfilePhoto: in.UserProfilePhoto,
	}
}

type PropertyService struct {
	Store PropertyStore
	Clock clock.Clock
}

func NewPropertyService(store PropertyStore, clk clock.Clock) *PropertyService {
	return &PropertyService{Store: store, Clock: clk}
}

func (s *PropertyService) ListProperties(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	if q.SortBy != "" && !sortFieldPattern.MatchString(q.SortBy) {
		return nil, models.NewValidationError("sortBy", "sortBy %q is not a valid field name", q.SortBy)
	}
	return s.Store.FindAll(ctx, q)
}

func (s *PropertyService) Featured(ctx context.Context) ([]models.Property, error) {
	return s.Store.FindAll(ctx, models.PropertyQuery{
		SortBy:    models.DefaultSortField,
		SortOrder: models.SortDesc,
		Limit:     FeaturedLimit,
	})
}

func (s *PropertyService) ListByOwner(ctx context.Context, id models.Identity, email string) ([]models.Property, error) {
	if err := policy.CanReadOwn(id, email, policy.ActionListOwnListings).Err(); err != nil {
		return nil, err
	}
	return s.Store.FindByOwnerEmail(ctx, email)
}

func (s *PropertyService) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	return s.Store.FindByID(ctx, propertyID)
}

func (s *PropertyService) CreateProperty(ctx context.Context, id models.Identity, in CreatePropertyInput) (*models.Property, error) {
	if err := policy.CanCreate(id, in.UserEmail).Err(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p := &models.Property{
		Name:             in.Name,
		Description:      in.Description,
		Category:         in.Category,
		Price:            *in.Price,
		Location:         in.Location,
		ImageURL:         in.ImageURL,
		UserEmail:        in.UserEmail,
		UserName:         in.UserName,
		UserProfilePhoto: in.UserProfilePhoto,
		PostedDate:       stamp(s.Clock),
		Reviews:          []models.Review{},
	}
	if err := s.Store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	return p, nil
}

func (s *PropertyService) UpdateProperty(ctx context.Context, id models.Identity, propertyID string, in UpdatePropertyInput) (*models.Property, error) {
	current, err := s.Store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutateProperty(id, current, policy.ActionUpdateProperty).Err(); err != nil {
		return nil, err
	}
	if in.UserEmail != nil && *in.UserEmail != current.UserEmail {
		return nil, models.NewValidationError("userEmail", "userEmail cannot be changed")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return s.Store.UpdateByID(ctx, propertyID, in.patch())
}

func (s *PropertyService) DeleteProperty(ctx context.Context, id models.Identity, propertyID string) error {
	current, err := s.Store.FindByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if err := policy.CanMutateProperty(id, current, policy.ActionDeleteProperty).Err(); err != nil {
		return err
	}
	return s.Store.DeleteByID(ctx, propertyID)
}

func (s *PropertyService) Ping(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

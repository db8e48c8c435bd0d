package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/benbjohnson/clock"

	"homenest/internal/models"
	"homenest/internal/policy"
)

type CreateReviewInput struct {
	ReviewerName  string `json:"reviewerName" validate:"required"`
	ReviewerEmail string `json:"reviewerEmail" validate:"required"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText    string `json:"reviewText" validate:"required"`
}

type UpdateReviewInput struct {
	Rating     *int    `json:"rating" validate:"omitnil,min=1,max=5"`
	ReviewText *string `json:"reviewText" validate:"omitnil,min=1"`
}

type ReviewService struct {
	Store PropertyStore
	Clock clock.Clock
}

func NewReviewService(store PropertyStore, clk clock.Clock) *ReviewService {
	return &ReviewService{Store: store, Clock: clk}
}

// AddReview appends a review to a property and returns the property with it.
func (s *ReviewService) AddReview(ctx context.Context, id models.Identity, propertyID string, in CreateReviewInput) (*models.Property, error) {
	if _, err := s.Store.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}
	if err := policy.CanAddReview(id, in.ReviewerEmail).Err(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	review := &models.Review{
		ReviewerName:  in.ReviewerName,
		ReviewerEmail: in.ReviewerEmail,
		Rating:        in.Rating,
		ReviewText:    in.ReviewText,
		ReviewDate:    stamp(s.Clock),
	}
	p, err := s.Store.AppendReview(ctx, propertyID, review)
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}
	return p, nil
}

// ListByReviewer flattens every review written by email, newest first.
func (s *ReviewService) ListByReviewer(ctx context.Context, id models.Identity, email string) ([]models.UserReview, error) {
	if err := policy.CanReadOwn(id, email, policy.ActionListOwnReviews).Err(); err != nil {
		return nil, err
	}
	properties, err := s.Store.FindByReviewerEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	out := []models.UserReview{}
	for i := range properties {
		p := &properties[i]
		for j := range p.Reviews {
			if p.Reviews[j].ReviewerEmail == email {
				out = append(out, models.NewUserReview(p, &p.Reviews[j]))
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReviewDate.After(out[j].ReviewDate)
	})
	return out, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id models.Identity, propertyID, reviewID string) error {
	p, review, err := s.resolve(ctx, propertyID, reviewID)
	if err != nil {
		return err
	}
	if err := policy.CanMutateReview(id, review, policy.ActionDeleteReview).Err(); err != nil {
		return err
	}
	return s.Store.RemoveReview(ctx, propertyID, models.ReviewKey(p.ID, review))
}

func (s *ReviewService) UpdateReview(ctx context.Context, id models.Identity, propertyID, reviewID string, in UpdateReviewInput) (*models.UserReview, error) {
	p, review, err := s.resolve(ctx, propertyID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutateReview(id, review, policy.ActionUpdateReview).Err(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	key := models.ReviewKey(p.ID, review)
	updated, err := s.Store.PatchReview(ctx, propertyID, key, models.ReviewPatch{Rating: in.Rating, ReviewText: in.ReviewText})
	if err != nil {
		return nil, err
	}
	fresh, ok := models.FindReview(updated, key)
	if !ok {
		return nil, models.ErrReviewNotFound
	}
	out := models.NewUserReview(p, fresh)
	return &out, nil
}

func (s *ReviewService) resolve(ctx context.Context, propertyID, reviewID string) (*models.Property, *models.Review, error) {
	p, err := s.Store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	review, ok := models.FindReview(p, reviewID)
	if !ok {
		return nil, nil, models.ErrReviewNotFound
	}
	return p, review, nil
}

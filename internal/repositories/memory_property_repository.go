package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"homenest/internal/models"
)

// MemoryPropertyRepository keeps properties in process memory with the same
// semantics as PropertyRepository. It backs tests and local runs without Mongo.
type MemoryPropertyRepository struct {
	mu         sync.RWMutex
	properties []models.Property
}

func NewMemoryPropertyRepository() *MemoryPropertyRepository {
	return &MemoryPropertyRepository{}
}

func (r *MemoryPropertyRepository) Ping(context.Context) error { return nil }

func (r *MemoryPropertyRepository) FindAll(_ context.Context, q models.PropertyQuery) ([]models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	out := []models.Property{}
	for i := range r.properties {
		if needle == "" || strings.Contains(strings.ToLower(r.properties[i].Name), needle) {
			out = append(out, clone(r.properties[i]))
		}
	}

	field, order := q.SortBy, q.SortOrder
	if field == "" {
		field = models.DefaultSortField
	}
	if order == 0 {
		order = models.SortDesc
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareField(&out[i], &out[j], field)
		if order == models.SortAsc {
			return c < 0
		}
		return c > 0
	})
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MemoryPropertyRepository) FindByID(_ context.Context, id string) (*models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id)
	if i < 0 {
		return nil, models.ErrPropertyNotFound
	}
	p := clone(r.properties[i])
	return &p, nil
}

func (r *MemoryPropertyRepository) FindByOwnerEmail(_ context.Context, email string) ([]models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Property{}
	for i := range r.properties {
		if r.properties[i].UserEmail == email {
			out = append(out, clone(r.properties[i]))
		}
	}
	return out, nil
}

func (r *MemoryPropertyRepository) FindByReviewerEmail(_ context.Context, email string) ([]models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Property{}
	for i := range r.properties {
		p := &r.properties[i]
		for j := range p.Reviews {
			if p.Reviews[j].ReviewerEmail == email {
				full := clone(*p)
				out = append(out, models.Property{
					ID:       full.ID,
					Name:     full.Name,
					ImageURL: full.ImageURL,
					Location: full.Location,
					Price:    full.Price,
					Reviews:  full.Reviews,
				})
				break
			}
		}
	}
	return out, nil
}

func (r *MemoryPropertyRepository) Insert(_ context.Context, p *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	r.properties = append(r.properties, clone(*p))
	return nil
}

func (r *MemoryPropertyRepository) UpdateByID(_ context.Context, id string, patch models.PropertyPatch) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return nil, models.ErrPropertyNotFound
	}
	patch.Apply(&r.properties[i])
	p := clone(r.properties[i])
	return &p, nil
}

func (r *MemoryPropertyRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return models.ErrPropertyNotFound
	}
	r.properties = append(r.properties[:i], r.properties[i+1:]...)
	return nil
}

func (r *MemoryPropertyRepository) AppendReview(_ context.Context, propertyID string, review *models.Review) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(propertyID)
	if i < 0 {
		return nil, models.ErrPropertyNotFound
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	r.properties[i].Reviews = append(r.properties[i].Reviews, *review)
	p := clone(r.properties[i])
	return &p, nil
}

func (r *MemoryPropertyRepository) RemoveReview(_ context.Context, propertyID, reviewID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(propertyID)
	if i < 0 {
		return models.ErrPropertyNotFound
	}
	p := &r.properties[i]
	for j := range p.Reviews {
		if models.ReviewKey(p.ID, &p.Reviews[j]) == reviewID {
			p.Reviews = append(p.Reviews[:j], p.Reviews[j+1:]...)
			return nil
		}
	}
	return models.ErrReviewNotFound
}

func (r *MemoryPropertyRepository) PatchReview(_ context.Context, propertyID, reviewID string, patch models.ReviewPatch) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(propertyID)
	if i < 0 {
		return nil, models.ErrPropertyNotFound
	}
	p := &r.properties[i]
	for j := range p.Reviews {
		if models.ReviewKey(p.ID, &p.Reviews[j]) == reviewID {
			patch.Apply(&p.Reviews[j])
			out := clone(*p)
			return &out, nil
		}
	}
	return nil, models.ErrReviewNotFound
}

func (r *MemoryPropertyRepository) index(id string) int {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1
	}
	for i := range r.properties {
		if r.properties[i].ID == oid {
			return i
		}
	}
	return -1
}

func clone(p models.Property) models.Property {
	reviews := make([]models.Review, len(p.Reviews))
	copy(reviews, p.Reviews)
	p.Reviews = reviews
	return p
}

// compareField orders two properties by a stored field name. Unknown fields compare
// equal, the way documents missing a sort key do in Mongo.
func compareField(a, b *models.Property, field string) int {
	switch field {
	case "_id":
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "description":
		return strings.Compare(a.Description, b.Description)
	case "category":
		return strings.Compare(string(a.Category), string(b.Category))
	case "location":
		return strings.Compare(a.Location, b.Location)
	case "imageUrl":
		return strings.Compare(a.ImageURL, b.ImageURL)
	case "userEmail":
		return strings.Compare(a.UserEmail, b.UserEmail)
	case "userName":
		return strings.Compare(a.UserName, b.UserName)
	case "userProfilePhoto":
		return strings.Compare(a.UserProfilePhoto, b.UserProfilePhoto)
	case "price":
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	case "postedDate":
		return a.PostedDate.Compare(b.PostedDate)
	}
	return 0
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homenest/internal/models"
)

// PropertyRepository stores properties, with their reviews embedded, in one Mongo collection.
type PropertyRepository struct {
	Collection *mongo.Collection
	Timeout    time.Duration
}

func NewPropertyRepository(db *mongo.Database, collection string, timeout time.Duration) *PropertyRepository {
	return &PropertyRepository{Collection: db.Collection(collection), Timeout: timeout}
}

var reviewerProjection = bson.M{"name": 1, "imageUrl": 1, "location": 1, "price": 1, "reviews": 1}

func (r *PropertyRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func (r *PropertyRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.Collection.Database().Client().Ping(ctx, nil); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

func (r *PropertyRepository) FindAll(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if q.Search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
	}
	field, order := q.SortBy, q.SortOrder
	if field == "" {
		field = models.DefaultSortField
	}
	if order == 0 {
		order = models.SortDesc
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: int(order)}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return r.find(ctx, "find all", filter, opts)
}

func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrPropertyNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var p models.Property
	if err := r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPropertyNotFound
		}
		return nil, storeErr("find by id", err)
	}
	return &p, nil
}

func (r *PropertyRepository) FindByOwnerEmail(ctx context.Context, email string) ([]models.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.find(ctx, "find by owner", bson.M{"userEmail": email}, options.Find())
}

// FindByReviewerEmail returns properties holding at least one review by email,
// projected down to the fields shown next to a review.
func (r *PropertyRepository) FindByReviewerEmail(ctx context.Context, email string) ([]models.Property, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	opts := options.Find().SetProjection(reviewerProjection)
	return r.find(ctx, "find by reviewer", bson.M{"reviews.reviewerEmail": email}, opts)
}

func (r *PropertyRepository) Insert(ctx context.Context, p *models.Property) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	if _, err := r.Collection.InsertOne(ctx, p); err != nil {
		return storeErr("insert", err)
	}
	return nil
}

func (r *PropertyRepository) UpdateByID(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error) {
	set := patchDocument(patch)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrPropertyNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Property
	err = r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPropertyNotFound
		}
		return nil, storeErr("update", err)
	}
	return &p, nil
}

func (r *PropertyRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrPropertyNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr("delete", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrPropertyNotFound
	}
	return nil
}

func (r *PropertyRepository) AppendReview(ctx context.Context, propertyID string, review *models.Review) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return nil, models.ErrPropertyNotFound
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Property
	err = r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"reviews": review}}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPropertyNotFound
		}
		return nil, storeErr("append review", err)
	}
	return &p, nil
}

func (r *PropertyRepository) RemoveReview(ctx context.Context, propertyID, reviewID string) error {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return models.ErrPropertyNotFound
	}
	match, ok := reviewMatch(reviewID)
	if !ok {
		return models.ErrReviewNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, byID := match["_id"]; !byID {
		return r.removeLegacyReview(ctx, oid, match)
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"reviews": match}})
	if err != nil {
		return storeErr("remove review", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrPropertyNotFound
	}
	if res.ModifiedCount == 0 {
		return models.ErrReviewNotFound
	}
	return nil
}

// removeLegacyReview drops only the first review matching an id-less reference.
// $pull would take every duplicate with the same reviewer and date, so the element
// is nulled through the positional operator and the null pulled afterwards.
func (r *PropertyRepository) removeLegacyReview(ctx context.Context, oid primitive.ObjectID, match bson.M) error {
	filter := bson.M{"_id": oid, "reviews": bson.M{"$elemMatch": match}}
	res, err := r.Collection.UpdateOne(ctx, filter, bson.M{"$unset": bson.M{"reviews.$": ""}})
	if err != nil {
		return storeErr("remove review", err)
	}
	if res.MatchedCount == 0 {
		return r.missing(ctx, oid, "remove review")
	}
	if _, err := r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"reviews": nil}}); err != nil {
		return storeErr("remove review", err)
	}
	return nil
}

// missing tells an absent property from an absent review once a review filter matched nothing.
func (r *PropertyRepository) missing(ctx context.Context, oid primitive.ObjectID, op string) error {
	n, err := r.Collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return models.ErrPropertyNotFound
	}
	return models.ErrReviewNotFound
}

func (r *PropertyRepository) PatchReview(ctx context.Context, propertyID, reviewID string, patch models.ReviewPatch) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return nil, models.ErrPropertyNotFound
	}
	match, ok := reviewMatch(reviewID)
	if !ok {
		return nil, models.ErrReviewNotFound
	}
	set := bson.M{}
	if patch.Rating != nil {
		set["reviews.$.rating"] = *patch.Rating
	}
	if patch.ReviewText != nil {
		set["reviews.$.reviewText"] = *patch.ReviewText
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"_id": oid, "reviews": bson.M{"$elemMatch": match}}
	var p models.Property
	if len(set) == 0 {
		err = r.Collection.FindOne(ctx, filter).Decode(&p)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = r.Collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&p)
	}
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeErr("patch review", err)
	}
	return nil, r.missing(ctx, oid, "patch review")
}

func (r *PropertyRepository) find(ctx context.Context, op string, filter interface{}, opts *options.FindOptions) ([]models.Property, error) {
	cur, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer cur.Close(ctx)

	properties := []models.Property{}
	if err := cur.All(ctx, &properties); err != nil {
		return nil, storeErr(op, err)
	}
	return properties, nil
}

// reviewMatch builds the sub-document filter for a review id: the ObjectID when the id
// is one, otherwise the reviewer and the date window encoded in a legacy composite id.
func reviewMatch(reviewID string) (bson.M, bool) {
	if oid, err := primitive.ObjectIDFromHex(reviewID); err == nil {
		return bson.M{"_id": oid}, true
	}
	ref, ok := models.ParseLegacyReviewID(reviewID)
	if !ok {
		return nil, false
	}
	from := ref.Date.Truncate(ref.Precision)
	return bson.M{
		"reviewerEmail": ref.Email,
		"reviewDate":    bson.M{"$gte": from, "$lt": from.Add(ref.Precision)},
	}, true
}

func patchDocument(p models.PropertyPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.ImageURL != nil {
		set["imageUrl"] = *p.ImageURL
	}
	if p.UserName != nil {
		set["userName"] = *p.UserName
	}
	if p.UserProfilePhoto != nil {
		set["userProfilePhoto"] = *p.UserProfilePhoto
	}
	return set
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrStoreUnavailable, op, err)
}

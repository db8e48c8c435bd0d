package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegacyDateLayout is the millisecond ISO form used inside composite review ids.
const LegacyDateLayout = "2006-01-02T15:04:05.000Z07:00"

// legacyTextDateLayout is the JavaScript Date.toString form found in older composite ids,
// without the trailing " (zone name)".
const legacyTextDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

type Review struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ReviewerName  string             `bson:"reviewerName" json:"reviewerName"`
	ReviewerEmail string             `bson:"reviewerEmail" json:"reviewerEmail"`
	Rating        int                `bson:"rating" json:"rating"`
	ReviewText    string             `bson:"reviewText" json:"reviewText"`
	ReviewDate    time.Time          `bson:"reviewDate" json:"reviewDate"`
}

type ReviewPatch struct {
	Rating     *int
	ReviewText *string
}

func (p ReviewPatch) Apply(r *Review) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.ReviewText != nil {
		r.ReviewText = *p.ReviewText
	}
}

// UserReview is a review flattened together with display fields of its property.
type UserReview struct {
	ID               string             `json:"_id"`
	PropertyID       primitive.ObjectID `json:"propertyId"`
	PropertyName     string             `json:"propertyName"`
	PropertyImage    string             `json:"propertyImage"`
	PropertyLocation string             `json:"propertyLocation"`
	PropertyPrice    float64            `json:"propertyPrice"`
	UserEmail        string             `json:"userEmail"`
	UserName         string             `json:"userName"`
	Rating           int                `json:"rating"`
	Review           string             `json:"review"`
	ReviewDate       time.Time          `json:"reviewDate"`
}

func NewUserReview(p *Property, r *Review) UserReview {
	return UserReview{
		ID:               ReviewKey(p.ID, r),
		PropertyID:       p.ID,
		PropertyName:     p.Name,
		PropertyImage:    p.ImageURL,
		PropertyLocation: p.Location,
		PropertyPrice:    p.Price,
		UserEmail:        r.ReviewerEmail,
		UserName:         r.ReviewerName,
		Rating:           r.Rating,
		Review:           r.ReviewText,
		ReviewDate:       r.ReviewDate,
	}
}

// ReviewKey returns the review's id, or the legacy composite id for reviews stored without one.
func ReviewKey(propertyID primitive.ObjectID, r *Review) string {
	if !r.ID.IsZero() {
		return r.ID.Hex()
	}
	return LegacyReviewID(propertyID, r.ReviewerEmail, r.ReviewDate)
}

func LegacyReviewID(propertyID primitive.ObjectID, email string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", propertyID.Hex(), email, date.UTC().Format(LegacyDateLayout))
}

// LegacyRef is the decoded form of a composite review id. Date only identifies a
// review within Precision.
type LegacyRef struct {
	PropertyID string
	Email      string
	Date       time.Time
	Precision  time.Duration
}

// Matches reports whether a review date falls within the precision of ref.
func (ref LegacyRef) Matches(date time.Time) bool {
	return date.Truncate(ref.Precision).Equal(ref.Date.Truncate(ref.Precision))
}

// ParseLegacyReviewID splits propertyId_reviewerEmail_reviewDate. The email may itself
// contain underscores, so the date is taken from the last separator.
func ParseLegacyReviewID(id string) (LegacyRef, bool) {
	first := strings.Index(id, "_")
	last := strings.LastIndex(id, "_")
	if first <= 0 || last <= first {
		return LegacyRef{}, false
	}
	date, precision, ok := parseLegacyDate(id[last+1:])
	if !ok {
		return LegacyRef{}, false
	}
	return LegacyRef{PropertyID: id[:first], Email: id[first+1 : last], Date: date, Precision: precision}, true
}

func parseLegacyDate(s string) (time.Time, time.Duration, bool) {
	if date, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return date, time.Millisecond, true
	}
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	if date, err := time.Parse(legacyTextDateLayout, s); err == nil {
		return date, time.Second, true
	}
	return time.Time{}, 0, false
}

// FindReview resolves reviewID against the reviews of p: exact id first, then the
// segment before the first separator, then the legacy composite form.
func FindReview(p *Property, reviewID string) (*Review, bool) {
	for i := range p.Reviews {
		if ReviewKey(p.ID, &p.Reviews[i]) == reviewID {
			return &p.Reviews[i], true
		}
	}
	head, _, found := strings.Cut(reviewID, "_")
	if !found {
		return nil, false
	}
	for i := range p.Reviews {
		if !p.Reviews[i].ID.IsZero() && p.Reviews[i].ID.Hex() == head {
			return &p.Reviews[i], true
		}
	}
	ref, ok := ParseLegacyReviewID(reviewID)
	if !ok || ref.PropertyID != p.ID.Hex() {
		return nil, false
	}
	for i := range p.Reviews {
		r := &p.Reviews[i]
		if r.ReviewerEmail == ref.Email && ref.Matches(r.ReviewDate) {
			return r, true
		}
	}
	return nil, false
}

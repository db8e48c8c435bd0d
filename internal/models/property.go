package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryRent       Category = "Rent"
	CategorySale       Category = "Sale"
	CategoryCommercial Category = "Commercial"
	CategoryLand       Category = "Land"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRent, CategorySale, CategoryCommercial, CategoryLand:
		return true
	}
	return false
}

type Property struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description" json:"description"`
	Category         Category           `bson:"category" json:"category"`
	Price            float64            `bson:"price" json:"price"`
	Location         string             `bson:"location" json:"location"`
	ImageURL         string             `bson:"imageUrl" json:"imageUrl"`
	UserEmail        string             `bson:"userEmail" json:"userEmail"`
	UserName         string             `bson:"userName" json:"userName"`
	UserProfilePhoto string             `bson:"userProfilePhoto" json:"userProfilePhoto"`
	PostedDate       time.Time          `bson:"postedDate" json:"postedDate"`
	Reviews          []Review           `bson:"reviews" json:"reviews"`
}

// PropertyPatch holds the writable fields of a property update. Nil fields are left untouched.
type PropertyPatch struct {
	Name             *string
	Description      *string
	Category         *Category
	Price            *float64
	Location         *string
	ImageURL         *string
	UserName         *string
	UserProfilePhoto *string
}

func (p PropertyPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil && p.Price == nil &&
		p.Location == nil && p.ImageURL == nil && p.UserName == nil && p.UserProfilePhoto == nil
}

// Apply copies the set fields onto prop.
func (p PropertyPatch) Apply(prop *Property) {
	if p.Name != nil {
		prop.Name = *p.Name
	}
	if p.Description != nil {
		prop.Description = *p.Description
	}
	if p.Category != nil {
		prop.Category = *p.Category
	}
	if p.Price != nil {
		prop.Price = *p.Price
	}
	if p.Location != nil {
		prop.Location = *p.Location
	}
	if p.ImageURL != nil {
		prop.ImageURL = *p.ImageURL
	}
	if p.UserName != nil {
		prop.UserName = *p.UserName
	}
	if p.UserProfilePhoto != nil {
		prop.UserProfilePhoto = *p.UserProfilePhoto
	}
}

type SortOrder int

const (
	SortDesc SortOrder = -1
	SortAsc  SortOrder = 1
)

const DefaultSortField = "postedDate"

// PropertyQuery is the filter and ordering of a listing request.
type PropertyQuery struct {
	Search    string
	SortBy    string
	SortOrder SortOrder
	Limit     int64
}

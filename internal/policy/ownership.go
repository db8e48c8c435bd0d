// Package policy decides who may act on which property or review.
// Every function is total: it returns an allow or a deny with a reason,
// and never touches the store.
package policy

import (
	"homenest/internal/models"
)

type Action string

const (
	ActionCreate          Action = "create_property"
	ActionListOwnListings Action = "list_own_properties"
	ActionListOwnReviews  Action = "list_own_reviews"
	ActionUpdateProperty  Action = "update_property"
	ActionDeleteProperty  Action = "delete_property"
	ActionAddReview       Action = "add_review"
	ActionUpdateReview    Action = "update_review"
	ActionDeleteReview    Action = "delete_review"
)

type Reason string

const (
	ReasonNone          Reason = ""
	ReasonMissingEmail  Reason = "missing_email"
	ReasonOtherOwner    Reason = "other_owner"
	ReasonNotOwner      Reason = "not_owner"
	ReasonOtherReviewer Reason = "other_reviewer"
	ReasonNotAuthor     Reason = "not_author"
)

var denyMessages = map[Action]string{
	ActionCreate:          "Forbidden: Cannot create property for another user",
	ActionListOwnListings: "Forbidden: Can only access your own properties",
	ActionListOwnReviews:  "Forbidden: Can only access your own reviews",
	ActionUpdateProperty:  "Forbidden: Can only update your own properties",
	ActionDeleteProperty:  "Forbidden: Can only delete your own properties",
	ActionAddReview:       "Forbidden: Can only add reviews from your own account",
	ActionUpdateReview:    "Forbidden: Can only update your own reviews",
	ActionDeleteReview:    "Forbidden: Can only delete your own reviews",
}

type Decision struct {
	Action Action
	Reason Reason
}

func (d Decision) Allowed() bool {
	return d.Reason == ReasonNone
}

// Err converts a deny into the error the handlers map to a status code.
// A missing email is an authentication problem, not an ownership one.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonNone:
		return nil
	case ReasonMissingEmail:
		return models.ErrMissingIdentity
	}
	return &models.ForbiddenError{Reason: string(d.Reason), Message: denyMessages[d.Action]}
}

func decide(action Action, id models.Identity, want string, deny Reason) Decision {
	if id.Email == "" {
		return Decision{Action: action, Reason: ReasonMissingEmail}
	}
	if id.Email != want {
		return Decision{Action: action, Reason: deny}
	}
	return Decision{Action: action}
}

// CanCreate allows a caller to create a property only under their own email.
func CanCreate(id models.Identity, ownerEmail string) Decision {
	return decide(ActionCreate, id, ownerEmail, ReasonOtherOwner)
}

// CanReadOwn guards the "my properties" and "my reviews" listings.
func CanReadOwn(id models.Identity, targetEmail string, action Action) Decision {
	return decide(action, id, targetEmail, ReasonOtherOwner)
}

// CanMutateProperty allows updates and deletes by the owner only.
func CanMutateProperty(id models.Identity, p *models.Property, action Action) Decision {
	return decide(action, id, p.UserEmail, ReasonNotOwner)
}

// CanAddReview checks only the reviewer identity; owners may review their own listing.
func CanAddReview(id models.Identity, reviewerEmail string) Decision {
	return decide(ActionAddReview, id, reviewerEmail, ReasonOtherReviewer)
}

// CanMutateReview allows updates and deletes by the review's author only.
func CanMutateReview(id models.Identity, r *models.Review, action Action) Decision {
	return decide(action, id, r.ReviewerEmail, ReasonNotAuthor)
}

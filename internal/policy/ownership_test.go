package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homenest/internal/models"
)

var (
	owner     = models.Identity{UID: "u1", Email: "a@x.com"}
	stranger  = models.Identity{UID: "u2", Email: "b@x.com"}
	anonymous = models.Identity{UID: "u3"}
)

func TestCanMutateProperty(t *testing.T) {
	p := &models.Property{UserEmail: owner.Email}

	for _, action := range []Action{ActionUpdateProperty, ActionDeleteProperty} {
		t.Run(string(action), func(t *testing.T) {
			assert.True(t, CanMutateProperty(owner, p, action).Allowed())
			require.NoError(t, CanMutateProperty(owner, p, action).Err())

			d := CanMutateProperty(stranger, p, action)
			assert.False(t, d.Allowed())
			assert.Equal(t, ReasonNotOwner, d.Reason)

			var fe *models.ForbiddenError
			require.True(t, errors.As(d.Err(), &fe))
			assert.Equal(t, denyMessages[action], fe.Message)
		})
	}
}

func TestCanMutateReview(t *testing.T) {
	r := &models.Review{ReviewerEmail: stranger.Email}

	assert.True(t, CanMutateReview(stranger, r, ActionUpdateReview).Allowed())
	assert.True(t, CanMutateReview(stranger, r, ActionDeleteReview).Allowed())

	d := CanMutateReview(owner, r, ActionDeleteReview)
	assert.Equal(t, ReasonNotAuthor, d.Reason)
	var fe *models.ForbiddenError
	require.True(t, errors.As(d.Err(), &fe))
	assert.Equal(t, "Forbidden: Can only delete your own reviews", fe.Message)
}

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(owner, "a@x.com").Allowed())
	assert.Equal(t, ReasonOtherOwner, CanCreate(owner, "b@x.com").Reason)
	assert.Equal(t, ReasonOtherOwner, CanCreate(owner, "").Reason)
}

func TestCanAddReviewAllowsOwnListing(t *testing.T) {
	// Owners reviewing their own property is permitted.
	assert.True(t, CanAddReview(owner, owner.Email).Allowed())
	assert.Equal(t, ReasonOtherReviewer, CanAddReview(owner, stranger.Email).Reason)
}

func TestCanReadOwn(t *testing.T) {
	assert.True(t, CanReadOwn(owner, owner.Email, ActionListOwnListings).Allowed())

	d := CanReadOwn(owner, stranger.Email, ActionListOwnReviews)
	var fe *models.ForbiddenError
	require.True(t, errors.As(d.Err(), &fe))
	assert.Equal(t, "Forbidden: Can only access your own reviews", fe.Message)
}

func TestMissingEmailIsUnauthenticated(t *testing.T) {
	decisions := []Decision{
		CanCreate(anonymous, ""),
		CanReadOwn(anonymous, "a@x.com", ActionListOwnReviews),
		CanMutateProperty(anonymous, &models.Property{}, ActionUpdateProperty),
		CanAddReview(anonymous, ""),
		CanMutateReview(anonymous, &models.Review{}, ActionDeleteReview),
	}
	for _, d := range decisions {
		assert.Equal(t, ReasonMissingEmail, d.Reason, d.Action)
		assert.ErrorIs(t, d.Err(), models.ErrMissingIdentity)
	}
}

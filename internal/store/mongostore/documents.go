package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
)

// responseDoc is the stored shape of an onboarding response. _id is an
// ObjectID for documents this service writes; older seeded documents may
// carry string ids.
type responseDoc struct {
	ID               any               `bson:"_id,omitempty"`
	UserID           string            `bson:"userId"`
	Username         string            `bson:"username,omitempty"`
	QuestionSet      string            `bson:"questionSet,omitempty"`
	Answers          map[string]any    `bson:"answers"`
	FormattedAnswers map[string]string `bson:"formattedAnswers"`
	CreatedAt        time.Time         `bson:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt"`
}

func toResponseDoc(r *models.OnboardingResponse) responseDoc {
	return responseDoc{
		UserID:           r.UserID,
		Username:         r.Username,
		QuestionSet:      r.QuestionSet,
		Answers:          map[string]any(r.Answers),
		FormattedAnswers: r.FormattedAnswers,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (d responseDoc) model() models.OnboardingResponse {
	return models.OnboardingResponse{
		ID:               idString(d.ID),
		UserID:           d.UserID,
		Username:         d.Username,
		QuestionSet:      d.QuestionSet,
		Answers:          models.NormalizeAnswers(d.Answers),
		FormattedAnswers: d.FormattedAnswers,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type userDoc struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Email                  string             `bson:"email"`
	UserName               string             `bson:"userName"`
	FirebaseUID            string             `bson:"firebaseUid"`
	FirebaseSignInProvider string             `bson:"firebaseSignInProvider"`
	IsEmailVerified        bool               `bson:"isEmailVerified"`
	IsSuspended            bool               `bson:"isSuspended"`
	Role                   string             `bson:"role"`
	HasCompletedOnboarding bool               `bson:"hasCompletedOnboarding"`
	CreatedAt              time.Time          `bson:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		Email:                  u.Email,
		UserName:               u.UserName,
		FirebaseUID:            u.FirebaseUID,
		FirebaseSignInProvider: u.FirebaseSignInProvider,
		IsEmailVerified:        u.IsEmailVerified,
		IsSuspended:            u.IsSuspended,
		Role:                   u.Role,
		HasCompletedOnboarding: u.HasCompletedOnboarding,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:                     d.ID.Hex(),
		Email:                  d.Email,
		UserName:               d.UserName,
		FirebaseUID:            d.FirebaseUID,
		FirebaseSignInProvider: d.FirebaseSignInProvider,
		IsEmailVerified:        d.IsEmailVerified,
		IsSuspended:            d.IsSuspended,
		Role:                   d.Role,
		HasCompletedOnboarding: d.HasCompletedOnboarding,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	}
	return ""
}

// idFilter matches a document by the string form of its _id, whichever
// type the _id was stored as.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

// plain converts decoded BSON containers into map[string]any and []any so
// the legacy reader does not depend on the driver's types.
func plain(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return val.Time()
	}
	return v
}

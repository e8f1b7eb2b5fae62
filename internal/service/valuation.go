package service

import (
	"context"
	"strings"
	"time"

	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/repository"
)

// DefaultClaimWindowDays bounds how old an activity may be when it is logged.
const DefaultClaimWindowDays = 30

// ValuationInput names what was done: an existing activity, or an activity type and a date.
type ValuationInput struct {
	ActivityID       string
	ActivityTypeID   string
	Date             *time.Time
	NoOfParticipants *int
	Description      string
}

// Valuation is the resolved reference data and point value of a claim.
type Valuation struct {
	Activity         *models.Activity
	ActivityType     models.ActivityType
	ActivityDate     time.Time
	Value            int
	NoOfParticipants *int
}

// ActivityValuator computes the point value of a logged activity. It only reads reference data.
type ActivityValuator struct {
	types           repository.ActivityTypeRepository
	activities      repository.ActivityRepository
	claimWindowDays int
	now             func() time.Time
}

// NewActivityValuator constructs a valuator with the given claim window in days.
func NewActivityValuator(types repository.ActivityTypeRepository, activities repository.ActivityRepository, claimWindowDays int) *ActivityValuator {
	if claimWindowDays <= 0 {
		claimWindowDays = DefaultClaimWindowDays
	}
	return &ActivityValuator{
		types:           types,
		activities:      activities,
		claimWindowDays: claimWindowDays,
		now:             time.Now,
	}
}

// Value resolves the input into a valuation or a BadInput, NotFound or Stale error.
func (v *ActivityValuator) Value(ctx context.Context, in ValuationInput) (Valuation, error) {
	activityID := strings.TrimSpace(in.ActivityID)
	typeID := strings.TrimSpace(in.ActivityTypeID)
	if (activityID == "") == (typeID == "") {
		return Valuation{}, badInput("exactly one of activity_id or activity_type_id is required")
	}

	today := calendarDay(v.now())
	var result Valuation

	if activityID != "" {
		activity, err := v.activities.GetByID(ctx, activityID)
		if err != nil {
			return Valuation{}, lookupError(err, "invalid activity id")
		}
		result.Activity = &activity
		result.ActivityType = activity.ActivityType
		result.ActivityDate = calendarDay(activity.ActivityDate)
	} else {
		if in.Date == nil {
			return Valuation{}, badInput("date is required when logging against an activity type")
		}
		date := calendarDay(*in.Date)
		if date.After(today) {
			return Valuation{}, badInput("invalid activity date")
		}
		activityType, err := v.types.GetByID(ctx, typeID)
		if err != nil {
			return Valuation{}, lookupError(err, "invalid activity type id")
		}
		result.ActivityType = activityType
		result.ActivityDate = date
	}

	if days := int(today.Sub(result.ActivityDate).Hours() / 24); days > v.claimWindowDays {
		return Valuation{}, domainError(ErrStale, "you're late, that activity happened more than %d days ago", v.claimWindowDays)
	}

	if !result.ActivityType.SupportsMultipleParticipants {
		result.Value = result.ActivityType.Value
		return result, nil
	}

	if in.NoOfParticipants == nil || *in.NoOfParticipants < 1 || strings.TrimSpace(in.Description) == "" {
		return Valuation{}, badInput("please send the number of participants and their names in the description")
	}
	participants := *in.NoOfParticipants
	result.NoOfParticipants = &participants
	result.Value = result.ActivityType.Value * participants
	return result, nil
}

func calendarDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

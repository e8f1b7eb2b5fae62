package workflow

import "strings"

// ActivityStatus is the lifecycle state of a logged activity.
type ActivityStatus string

const (
	ActivityInReview ActivityStatus = "in review"
	ActivityPending  ActivityStatus = "pending"
	ActivityApproved ActivityStatus = "approved"
	ActivityRejected ActivityStatus = "rejected"
)

// ParseActivityStatus maps raw input onto a known activity status.
func ParseActivityStatus(raw string) (ActivityStatus, bool) {
	switch status := ActivityStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case ActivityInReview, ActivityPending, ActivityApproved, ActivityRejected:
		return status, true
	default:
		return "", false
	}
}

// Editable reports whether the owner may still edit or delete the activity.
func (s ActivityStatus) Editable() bool {
	return s == ActivityInReview
}

// Terminal reports whether no further transition can leave s.
func (s ActivityStatus) Terminal() bool {
	return s == ActivityApproved || s == ActivityRejected
}

// RedemptionStatus is the lifecycle state of a redemption request.
type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
)

// ParseRedemptionStatus maps raw input onto a known redemption status.
func ParseRedemptionStatus(raw string) (RedemptionStatus, bool) {
	switch status := RedemptionStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case RedemptionPending, RedemptionApproved, RedemptionRejected:
		return status, true
	default:
		return "", false
	}
}

// DecisionTarget resolves a reviewer's requested status: "approved" approves, anything else rejects.
func DecisionTarget(raw string) RedemptionStatus {
	if status, ok := ParseRedemptionStatus(raw); ok && status == RedemptionApproved {
		return RedemptionApproved
	}
	return RedemptionRejected
}

// Terminal reports whether no further transition can leave s.
func (s RedemptionStatus) Terminal() bool {
	return s == RedemptionApproved || s == RedemptionRejected
}

// LoggedActivities is the review pipeline for logged activities.
var LoggedActivities = NewTable(
	Rule[ActivityStatus]{From: ActivityInReview, To: ActivityPending, Roles: []Role{RoleSecretary}},
	Rule[ActivityStatus]{From: ActivityInReview, To: ActivityRejected, Roles: []Role{RoleSecretary}},
	Rule[ActivityStatus]{From: ActivityPending, To: ActivityApproved, Roles: []Role{RoleSuccessOps}},
	Rule[ActivityStatus]{From: ActivityPending, To: ActivityRejected, Roles: []Role{RoleSuccessOps}},
)

// Redemptions is the decision pipeline for redemption requests.
var Redemptions = NewTable(
	Rule[RedemptionStatus]{From: RedemptionPending, To: RedemptionApproved, Roles: []Role{RoleSuccessOps, RoleCIO}},
	Rule[RedemptionStatus]{From: RedemptionPending, To: RedemptionRejected, Roles: []Role{RoleSuccessOps, RoleCIO}},
)

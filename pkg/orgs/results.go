// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

// Audit actions emitted by the executor, one per logical operation.
const (
	ActionOrganizationCreated  = "organization_created"
	ActionOrganizationDeleted  = "organization_deleted"
	ActionOrganizationFrozen   = "organization_frozen"
	ActionOrganizationUnfrozen = "organization_unfrozen"
	ActionOrganizationArchived = "organization_archived"
	ActionOrganizationRenamed  = "organization_renamed"
	ActionPlanChanged          = "plan_changed"
	ActionOwnershipTransferred = "ownership_transferred"
	ActionMemberInvited        = "member_invited"
	ActionMemberRoleUpdated    = "member_role_updated"
	ActionMemberRemoved        = "member_removed"
)

// Result is the uniform envelope every privileged action returns. The
// executor never redirects; NavigateTo is a hint the UI layer may follow.
type Result struct {
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
	NavigateTo string `json:"navigate_to,omitempty"`
}

func ok() *Result {
	return &Result{OK: true}
}

func okNavigate(to string) *Result {
	return &Result{OK: true, NavigateTo: to}
}

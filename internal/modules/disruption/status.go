package disruption

import "github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"

// hasBeenLive reports whether a stored status can only be reached from a
// published baseline. An unset status belongs to a row written before
// statuses were stamped on them, all of which were published, so it reads
// as PUBLISHED everywhere.
func hasBeenLive(s models.PublishStatus) bool {
	switch s {
	case "", models.PublishStatusPublished, models.PublishStatusEditing,
		models.PublishStatusEditPendingApproval, models.PublishStatusPendingAndEditing:
		return true
	}
	return false
}

// DeriveStatus computes the status shown for a disruption from its stored
// baseline status and which overlays are open. Feeding the result back in
// with the same overlays returns the same status.
func DeriveStatus(stored models.PublishStatus, isPending, isEdited bool) models.PublishStatus {
	live := hasBeenLive(stored)
	switch {
	case isPending && isEdited && live:
		return models.PublishStatusPendingAndEditing
	case isPending && live:
		return models.PublishStatusEditPendingApproval
	case isPending:
		return models.PublishStatusPendingApproval
	case isEdited:
		return models.PublishStatusEditing
	case stored == "":
		return models.PublishStatusPublished
	}
	return stored
}

// targetOverlay picks the slot a write lands in for a disruption currently in
// status, made by a staff or non-staff actor.
func targetOverlay(status models.PublishStatus, isStaff, isTemplate bool) Overlay {
	switch {
	case status == models.PublishStatusDraft:
		return OverlayBaseline
	case isTemplate:
		return OverlayEdit
	case !isStaff && (status == "" || status == models.PublishStatusPublished || status == models.PublishStatusPendingAndEditing):
		return OverlayPending
	}
	return OverlayEdit
}

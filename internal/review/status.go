package review

import (
	"github.com/GIDD/gidd/internal/models"
)

// StatusCounts summarizes the review statuses of an event's QA-eligible
// figures at derivation time.
type StatusCounts struct {
	Total      int
	Approved   int
	NotStarted int
}

// CountStatuses builds StatusCounts over the event's eligible set: figures
// with the recommended role, widened to triangulation figures when the event
// includes them in QA.
func CountStatuses(event *models.Event, figures []models.Figure) StatusCounts {
	var counts StatusCounts
	for _, f := range figures {
		if f.Role != models.RoleRecommended &&
			!(event.IncludeTriangulationInQA && f.Role == models.RoleTriangulation) {
			continue
		}
		counts.Total++
		switch f.ReviewStatus {
		case models.FigureReviewApproved:
			counts.Approved++
		case models.FigureReviewNotStarted:
			counts.NotStarted++
		}
	}
	return counts
}

// DeriveEventStatus computes the event's review status from its eligible
// figures' statuses and its own previous status. The *_BUT_CHANGED states
// only ever arise here; they are never user-settable.
func DeriveEventStatus(current models.EventReviewStatus, counts StatusCounts) models.EventReviewStatus {
	if counts.Total == 0 {
		return models.EventReviewNotStarted
	}

	if counts.Approved == counts.Total {
		// Fully approved again; an untouched sign-off stays signed off.
		if current == models.EventReviewSignedOff {
			return models.EventReviewSignedOff
		}
		return models.EventReviewApproved
	}

	switch current {
	case models.EventReviewSignedOff, models.EventReviewSignedOffChanged:
		return models.EventReviewSignedOffChanged
	case models.EventReviewApproved, models.EventReviewApprovedChanged:
		return models.EventReviewApprovedChanged
	}

	if counts.NotStarted < counts.Total {
		return models.EventReviewInProgress
	}
	return models.EventReviewNotStarted
}

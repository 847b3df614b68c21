package review

import (
	"testing"

	"github.com/GIDD/gidd/internal/models"
)

func TestDeriveEventStatus(t *testing.T) {
	tests := []struct {
		name    string
		current models.EventReviewStatus
		counts  StatusCounts
		want    models.EventReviewStatus
	}{
		{
			"no eligible figures",
			models.EventReviewInProgress,
			StatusCounts{},
			models.EventReviewNotStarted,
		},
		{
			"all approved",
			models.EventReviewInProgress,
			StatusCounts{Total: 3, Approved: 3},
			models.EventReviewApproved,
		},
		{
			"all approved keeps sign-off",
			models.EventReviewSignedOff,
			StatusCounts{Total: 3, Approved: 3},
			models.EventReviewSignedOff,
		},
		{
			"partial approval is in progress",
			models.EventReviewNotStarted,
			StatusCounts{Total: 3, Approved: 2, NotStarted: 1},
			models.EventReviewInProgress,
		},
		{
			"change after full approval",
			models.EventReviewApproved,
			StatusCounts{Total: 3, Approved: 2, NotStarted: 1},
			models.EventReviewApprovedChanged,
		},
		{
			"change stays changed",
			models.EventReviewApprovedChanged,
			StatusCounts{Total: 3, Approved: 2, NotStarted: 1},
			models.EventReviewApprovedChanged,
		},
		{
			"change after sign-off",
			models.EventReviewSignedOff,
			StatusCounts{Total: 2, Approved: 1, NotStarted: 1},
			models.EventReviewSignedOffChanged,
		},
		{
			"nothing started",
			models.EventReviewNotStarted,
			StatusCounts{Total: 2, NotStarted: 2},
			models.EventReviewNotStarted,
		},
		{
			"re-requested counts as started",
			models.EventReviewNotStarted,
			StatusCounts{Total: 2, NotStarted: 1},
			models.EventReviewInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveEventStatus(tt.current, tt.counts)
			if got != tt.want {
				t.Errorf("DeriveEventStatus(%s, %+v) = %s, want %s", tt.current, tt.counts, got, tt.want)
			}
		})
	}
}

func TestCountStatuses_TriangulationWidening(t *testing.T) {
	figures := []models.Figure{
		{Role: models.RoleRecommended, ReviewStatus: models.FigureReviewApproved},
		{Role: models.RoleTriangulation, ReviewStatus: models.FigureReviewNotStarted},
	}

	event := &models.Event{}
	counts := CountStatuses(event, figures)
	if counts.Total != 1 || counts.Approved != 1 {
		t.Errorf("without triangulation: %+v", counts)
	}

	event.IncludeTriangulationInQA = true
	counts = CountStatuses(event, figures)
	if counts.Total != 2 || counts.Approved != 1 || counts.NotStarted != 1 {
		t.Errorf("with triangulation: %+v", counts)
	}
}

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GIDD/gidd/internal/models"
)

// Domain-rule violations are rejected synchronously with a specific reason
// and no partial state change.
var (
	// ErrSignOffNotAllowed rejects signing off an event that is not exactly
	// approved.
	ErrSignOffNotAllowed = errors.New("event must be approved before sign-off")

	// ErrFigureNotApproved rejects unapproving a figure that is not approved.
	ErrFigureNotApproved = errors.New("figure is not approved")
)

// FigureStore is the figure persistence the state machine needs.
type FigureStore interface {
	GetFigure(ctx context.Context, id string) (*models.Figure, error)
	ListFiguresByEvent(ctx context.Context, eventID string) ([]models.Figure, error)
	UpdateFigureReviewStatus(ctx context.Context, id string, status models.FigureReviewStatus) error
}

// EventStore is the event persistence the state machine needs.
type EventStore interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	UpdateEventReviewStatus(ctx context.Context, id string, status models.EventReviewStatus) error
	UpdateEventIncludeTriangulation(ctx context.Context, id string, include bool) error
}

// CommentStore answers whether a figure still has open review comments.
type CommentStore interface {
	CountOpenForFigure(ctx context.Context, figureID string) (int, error)
}

// Service runs the review-status state machine. Every transition recomputes
// the owning event's derived status from a fresh read of its figures, under
// a per-event lock so sibling-figure transitions cannot race on the same
// event row.
type Service struct {
	figures  FigureStore
	events   EventStore
	comments CommentStore
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a review service.
func NewService(figures FigureStore, events EventStore, comments CommentStore, logger *slog.Logger) *Service {
	return &Service{
		figures:  figures,
		events:   events,
		comments: comments,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

// lockEvent serializes transitions per event and returns the unlock func.
func (s *Service) lockEvent(eventID string) func() {
	s.mu.Lock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[eventID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ApproveFigure moves a figure to approved from any state.
func (s *Service) ApproveFigure(ctx context.Context, figureID string) (*models.Figure, error) {
	return s.transitionFigure(ctx, figureID, func(ctx context.Context, f *models.Figure) (models.FigureReviewStatus, error) {
		return models.FigureReviewApproved, nil
	})
}

// UnapproveFigure moves an approved figure back into the workflow: in
// progress when open review comments remain, otherwise not started.
func (s *Service) UnapproveFigure(ctx context.Context, figureID string) (*models.Figure, error) {
	return s.transitionFigure(ctx, figureID, func(ctx context.Context, f *models.Figure) (models.FigureReviewStatus, error) {
		if f.ReviewStatus != models.FigureReviewApproved {
			return "", ErrFigureNotApproved
		}
		open, err := s.comments.CountOpenForFigure(ctx, f.ID)
		if err != nil {
			return "", fmt.Errorf("failed to count open comments: %w", err)
		}
		if open > 0 {
			return models.FigureReviewInProgress, nil
		}
		return models.FigureReviewNotStarted, nil
	})
}

// ReRequestReview puts a figure back into the re-request loop from any state.
func (s *Service) ReRequestReview(ctx context.Context, figureID string) (*models.Figure, error) {
	return s.transitionFigure(ctx, figureID, func(ctx context.Context, f *models.Figure) (models.FigureReviewStatus, error) {
		return models.FigureReviewReRequested, nil
	})
}

func (s *Service) transitionFigure(
	ctx context.Context,
	figureID string,
	next func(ctx context.Context, f *models.Figure) (models.FigureReviewStatus, error),
) (*models.Figure, error) {
	f, err := s.figures.GetFigure(ctx, figureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get figure: %w", err)
	}
	if f == nil {
		return nil, models.ErrNotFound
	}

	unlock := s.lockEvent(f.EventID)
	defer unlock()

	// Re-read under the lock; a sibling transition may have landed between
	// the first read and lock acquisition.
	f, err = s.figures.GetFigure(ctx, figureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get figure: %w", err)
	}
	if f == nil {
		return nil, models.ErrNotFound
	}

	status, err := next(ctx, f)
	if err != nil {
		return nil, err
	}

	if err := s.figures.UpdateFigureReviewStatus(ctx, f.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update figure status: %w", err)
	}
	f.ReviewStatus = status

	if err := s.recomputeEventLocked(ctx, f.EventID); err != nil {
		return nil, err
	}

	s.logger.Info("figure review transition",
		"figure_id", f.ID,
		"event_id", f.EventID,
		"status", status)

	return f, nil
}

// SignOffEvent signs off an event. Only permitted when the event status is
// exactly approved; anything else is a domain error, not a state change.
func (s *Service) SignOffEvent(ctx context.Context, eventID string) (*models.Event, error) {
	unlock := s.lockEvent(eventID)
	defer unlock()

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, models.ErrNotFound
	}

	if event.ReviewStatus != models.EventReviewApproved {
		return nil, fmt.Errorf("%w (current status %s)", ErrSignOffNotAllowed, event.ReviewStatus)
	}

	if err := s.events.UpdateEventReviewStatus(ctx, eventID, models.EventReviewSignedOff); err != nil {
		return nil, fmt.Errorf("failed to sign off event: %w", err)
	}
	event.ReviewStatus = models.EventReviewSignedOff

	s.logger.Info("event signed off", "event_id", eventID)
	return event, nil
}

// SetIncludeTriangulation toggles the QA-eligible set and immediately
// recomputes the event's derived status over the new set.
func (s *Service) SetIncludeTriangulation(ctx context.Context, eventID string, include bool) (*models.Event, error) {
	unlock := s.lockEvent(eventID)
	defer unlock()

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, models.ErrNotFound
	}

	if err := s.events.UpdateEventIncludeTriangulation(ctx, eventID, include); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if err := s.recomputeEventLocked(ctx, eventID); err != nil {
		return nil, err
	}

	return s.events.GetEvent(ctx, eventID)
}

// RecomputeEventStatus recomputes an event's derived status. Mutating
// operations that touch figures call this explicitly; there are no implicit
// save hooks.
func (s *Service) RecomputeEventStatus(ctx context.Context, eventID string) error {
	unlock := s.lockEvent(eventID)
	defer unlock()
	return s.recomputeEventLocked(ctx, eventID)
}

// recomputeEventLocked derives and persists the event status from a fresh
// read of all its figures. Callers hold the event lock.
func (s *Service) recomputeEventLocked(ctx context.Context, eventID string) error {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return models.ErrNotFound
	}

	if event.IgnoreQA {
		s.logger.Debug("event excluded from QA, skipping status derivation", "event_id", eventID)
		return nil
	}

	figures, err := s.figures.ListFiguresByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list event figures: %w", err)
	}

	derived := DeriveEventStatus(event.ReviewStatus, CountStatuses(event, figures))
	if derived == event.ReviewStatus {
		return nil
	}

	if err := s.events.UpdateEventReviewStatus(ctx, eventID, derived); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	s.logger.Debug("event review status derived",
		"event_id", eventID,
		"from", event.ReviewStatus,
		"to", derived)
	return nil
}

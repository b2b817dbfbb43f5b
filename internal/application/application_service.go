package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	applicationerrors "github.com/bp848/prod-bperp/internal/application/errors"
	"github.com/bp848/prod-bperp/internal/applicationcode"
	"github.com/bp848/prod-bperp/internal/approvalroute"
	"github.com/bp848/prod-bperp/internal/events"
	"github.com/bp848/prod-bperp/internal/messaging/kafka"
	"github.com/bp848/prod-bperp/internal/shared/contextutil"
	"github.com/bp848/prod-bperp/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=application_service.go -destination=mock/application_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, applicantID string, req SubmitApplicationRequest) (ApplicationResponse, error)
	SaveDraft(ctx context.Context, applicantID string, req SaveDraftRequest) (ApplicationResponse, error)
	UpdateDraft(ctx context.Context, applicantID, id string, req SaveDraftRequest) (ApplicationResponse, error)
	SubmitDraft(ctx context.Context, applicantID, id string, req SubmitDraftRequest) (ApplicationResponse, error)
	Approve(ctx context.Context, approverID, id string) (ApplicationResponse, error)
	Reject(ctx context.Context, approverID, id, reason string) (ApplicationResponse, error)
	ListForUser(ctx context.Context, userID string) ([]ApplicationResponse, error)
	GetByID(ctx context.Context, userID, id string) (ApplicationResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	codeRepo  applicationcode.Repository
	routeRepo approvalroute.Repository
	counter   counter.Repository
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	codeRepo applicationcode.Repository,
	routeRepo approvalroute.Repository,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("application.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("application.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		codeRepo:  codeRepo,
		routeRepo: routeRepo,
		counter:   counterRepo,
		outbox:    outboxRepo,
		logger:    l,
	}
}

func (s *service) Submit(ctx context.Context, applicantID string, req SubmitApplicationRequest) (ApplicationResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit application requested",
		zap.String("request_id", rid),
		zap.String("applicant_id", applicantID),
		zap.String("application_code_id", req.ApplicationCodeID),
		zap.String("approval_route_id", req.ApprovalRouteID),
	)

	applicantUUID, err := uuid.Parse(applicantID)
	if err != nil {
		return ApplicationResponse{}, applicationerrors.ErrInvalidApplicantID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit application begin tx failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	code, err := s.resolveCode(ctx, req.ApplicationCodeID)
	if err != nil {
		return ApplicationResponse{}, err
	}

	route, err := s.resolveRoute(ctx, req.ApprovalRouteID, applicantUUID)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := ValidateFormData(code.Code, req.FormData); err != nil {
		s.logger.Warn("submit application form validation failed",
			zap.String("code", code.Code),
			zap.Error(err),
		)
		return ApplicationResponse{}, err
	}

	number, err := s.nextApplicationNumber(ctx)
	if err != nil {
		s.logger.Error("submit application number generation failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	now := time.Now().UTC()
	routeID := route.ID
	firstApprover := route.RouteData.Steps[0].ApproverID
	app := &Application{
		ID:                uuid.New(),
		ApplicationNumber: number,
		ApplicantID:       applicantUUID,
		ApplicationCodeID: code.ID,
		ApprovalRouteID:   &routeID,
		Status:            StatusPendingApproval,
		CurrentLevel:      0,
		ApproverID:        &firstApprover,
		FormData:          FormData(req.FormData),
		SubmittedAt:       &now,
	}

	if err := qtx.Create(ctx, app); err != nil {
		s.logger.Error("submit application persist failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	if err := s.queueEvent(ctx, tx, events.ApplicationLifecycleEvent{
		EventType:         events.ApplicationSubmitted,
		RequestID:         rid,
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		ApplicantID:       applicantID,
		ActorID:           applicantID,
		CurrentLevel:      0,
		NextApproverID:    firstApprover.String(),
		OccurredAt:        now,
	}); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit application commit failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("submit application success",
		zap.String("request_id", rid),
		zap.String("application_id", app.ID.String()),
		zap.String("application_number", app.ApplicationNumber),
		zap.String("approver_id", firstApprover.String()),
	)

	app.Code = code
	app.Route = route
	return mapToResponse(*app), nil
}

func (s *service) SaveDraft(ctx context.Context, applicantID string, req SaveDraftRequest) (ApplicationResponse, error) {
	applicantUUID, err := uuid.Parse(applicantID)
	if err != nil {
		return ApplicationResponse{}, applicationerrors.ErrInvalidApplicantID
	}

	code, err := s.resolveCode(ctx, req.ApplicationCodeID)
	if err != nil {
		return ApplicationResponse{}, err
	}

	// Drafts only need structurally valid JSON; full form validation
	// waits until submission so a half-filled form can be parked.
	if !json.Valid(req.FormData) {
		return ApplicationResponse{}, applicationerrors.ErrMalformedFormData
	}

	number, err := s.nextApplicationNumber(ctx)
	if err != nil {
		return ApplicationResponse{}, err
	}

	app := &Application{
		ID:                uuid.New(),
		ApplicationNumber: number,
		ApplicantID:       applicantUUID,
		ApplicationCodeID: code.ID,
		Status:            StatusDraft,
		FormData:          FormData(req.FormData),
	}

	if err := s.repo.Create(ctx, app); err != nil {
		s.logger.Error("save draft persist failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("draft saved",
		zap.String("application_id", app.ID.String()),
		zap.String("application_number", app.ApplicationNumber),
	)

	app.Code = code
	return mapToResponse(*app), nil
}

func (s *service) UpdateDraft(ctx context.Context, applicantID, id string, req SaveDraftRequest) (ApplicationResponse, error) {
	app, err := s.loadOwnDraft(ctx, applicantID, id)
	if err != nil {
		return ApplicationResponse{}, err
	}

	code, err := s.resolveCode(ctx, req.ApplicationCodeID)
	if err != nil {
		return ApplicationResponse{}, err
	}
	if !json.Valid(req.FormData) {
		return ApplicationResponse{}, applicationerrors.ErrMalformedFormData
	}

	app.ApplicationCodeID = code.ID
	app.FormData = FormData(req.FormData)

	if err := s.repo.UpdateDraft(ctx, app); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrNotDraft
		}
		s.logger.Error("update draft persist failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("draft updated", zap.String("application_id", id))

	app.Code = code
	return mapToResponse(*app), nil
}

func (s *service) SubmitDraft(ctx context.Context, applicantID, id string, req SubmitDraftRequest) (ApplicationResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	app, err := s.loadOwnDraft(ctx, applicantID, id)
	if err != nil {
		return ApplicationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Promotion repeats the submission checks: the code may have been
	// deactivated while the draft sat around.
	code, err := s.resolveCode(ctx, app.ApplicationCodeID.String())
	if err != nil {
		return ApplicationResponse{}, err
	}

	route, err := s.resolveRoute(ctx, req.ApprovalRouteID, app.ApplicantID)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := ValidateFormData(code.Code, app.FormData); err != nil {
		s.logger.Warn("submit draft form validation failed",
			zap.String("application_id", id),
			zap.Error(err),
		)
		return ApplicationResponse{}, err
	}

	now := time.Now().UTC()
	routeID := route.ID
	firstApprover := route.RouteData.Steps[0].ApproverID
	app.ApprovalRouteID = &routeID
	app.ApproverID = &firstApprover
	app.SubmittedAt = &now

	rows, err := qtx.PromoteDraft(ctx, app)
	if err != nil {
		s.logger.Error("submit draft persist failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	if rows == 0 {
		return ApplicationResponse{}, applicationerrors.ErrNotDraft
	}

	if err := s.queueEvent(ctx, tx, events.ApplicationLifecycleEvent{
		EventType:         events.ApplicationSubmitted,
		RequestID:         rid,
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		ApplicantID:       applicantID,
		ActorID:           applicantID,
		CurrentLevel:      0,
		NextApproverID:    firstApprover.String(),
		OccurredAt:        now,
	}); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit draft commit failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("draft submitted",
		zap.String("application_id", id),
		zap.String("approver_id", firstApprover.String()),
	)

	app.Status = StatusPendingApproval
	app.CurrentLevel = 0
	app.Code = code
	app.Route = route
	return mapToResponse(*app), nil
}

func (s *service) Approve(ctx context.Context, approverID, id string) (ApplicationResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	app, route, err := s.loadPendingForDecision(ctx, approverID, id)
	if err != nil {
		return ApplicationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	now := time.Now().UTC()
	steps := route.RouteData.Steps
	lastLevel := app.CurrentLevel == len(steps)-1

	event := events.ApplicationLifecycleEvent{
		RequestID:         rid,
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		ApplicantID:       app.ApplicantID.String(),
		ActorID:           approverID,
		OccurredAt:        now,
	}

	var rows int64
	if lastLevel {
		rows, err = qtx.FinalizeApproval(ctx, id, app.CurrentLevel, approverID, now)
		event.EventType = events.ApplicationApproved
		event.CurrentLevel = app.CurrentLevel

		app.Status = StatusApproved
		app.ApproverID = nil
		app.Approver = nil
		app.ApprovedAt = &now
	} else {
		next := steps[app.CurrentLevel+1].ApproverID
		rows, err = qtx.AdvanceLevel(ctx, id, app.CurrentLevel, approverID, next)
		event.EventType = events.ApplicationStepAdvanced
		event.CurrentLevel = app.CurrentLevel + 1
		event.NextApproverID = next.String()

		app.CurrentLevel++
		app.ApproverID = &next
		app.Approver = nil
	}
	if err != nil {
		s.logger.Error("approve application persist failed",
			zap.String("application_id", id),
			zap.Error(err),
		)
		return ApplicationResponse{}, err
	}
	if rows == 0 {
		s.logger.Warn("approve application lost the race",
			zap.String("application_id", id),
			zap.String("approver_id", approverID),
		)
		return ApplicationResponse{}, applicationerrors.ErrStaleDecision
	}

	if err := s.queueEvent(ctx, tx, event); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve application commit failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("application approved",
		zap.String("request_id", rid),
		zap.String("application_id", id),
		zap.String("approver_id", approverID),
		zap.String("status", app.Status),
		zap.Int("current_level", app.CurrentLevel),
	)

	return mapToResponse(*app), nil
}

func (s *service) Reject(ctx context.Context, approverID, id, reason string) (ApplicationResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	app, _, err := s.loadPendingForDecision(ctx, approverID, id)
	if err != nil {
		return ApplicationResponse{}, err
	}

	// Checked after the state preconditions so a terminal application
	// reports the invalid transition, not the missing reason.
	if reason == "" {
		return ApplicationResponse{}, applicationerrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	now := time.Now().UTC()
	rows, err := qtx.RejectPending(ctx, id, app.CurrentLevel, approverID, reason, now)
	if err != nil {
		s.logger.Error("reject application persist failed",
			zap.String("application_id", id),
			zap.Error(err),
		)
		return ApplicationResponse{}, err
	}
	if rows == 0 {
		s.logger.Warn("reject application lost the race",
			zap.String("application_id", id),
			zap.String("approver_id", approverID),
		)
		return ApplicationResponse{}, applicationerrors.ErrStaleDecision
	}

	if err := s.queueEvent(ctx, tx, events.ApplicationLifecycleEvent{
		EventType:         events.ApplicationRejected,
		RequestID:         rid,
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		ApplicantID:       app.ApplicantID.String(),
		ActorID:           approverID,
		CurrentLevel:      app.CurrentLevel,
		Reason:            reason,
		OccurredAt:        now,
	}); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject application commit failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("application rejected",
		zap.String("request_id", rid),
		zap.String("application_id", id),
		zap.String("approver_id", approverID),
	)

	app.Status = StatusRejected
	app.ApproverID = nil
	app.Approver = nil
	app.RejectionReason = &reason
	app.RejectedAt = &now
	return mapToResponse(*app), nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]ApplicationResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, applicationerrors.ErrInvalidActorID
	}

	apps, err := s.repo.FindAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(apps), nil
}

func (s *service) GetByID(ctx context.Context, userID, id string) (ApplicationResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ApplicationResponse{}, applicationerrors.ErrInvalidApplicationID
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrApplicationNotFound
		}
		return ApplicationResponse{}, err
	}

	if !isVisibleTo(app, userID) {
		return ApplicationResponse{}, applicationerrors.ErrNotVisible
	}

	return mapToResponse(*app), nil
}

// isVisibleTo grants detail access to the applicant and to anyone named
// in the route, so past approvers keep seeing what they decided on.
// Drafts stay applicant-only.
func isVisibleTo(app *Application, userID string) bool {
	if app.ApplicantID.String() == userID {
		return true
	}
	if app.Status == StatusDraft {
		return false
	}
	if app.Route != nil {
		for _, step := range app.Route.RouteData.Steps {
			if step.ApproverID.String() == userID {
				return true
			}
		}
	}
	return false
}

func (s *service) loadOwnDraft(ctx context.Context, applicantID, id string) (*Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, applicationerrors.ErrInvalidApplicationID
	}
	if _, err := uuid.Parse(applicantID); err != nil {
		return nil, applicationerrors.ErrInvalidApplicantID
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, applicationerrors.ErrApplicationNotFound
		}
		return nil, err
	}
	if app.ApplicantID.String() != applicantID {
		return nil, applicationerrors.ErrNotApplicant
	}
	if app.Status != StatusDraft {
		return nil, applicationerrors.ErrNotDraft
	}
	return app, nil
}

// loadPendingForDecision runs the precondition checks shared by approve
// and reject. The ordering matters: terminal states answer with an
// invalid-transition error even to strangers, but a wrong approver on a
// live application gets a forbidden.
func (s *service) loadPendingForDecision(ctx context.Context, approverID, id string) (*Application, *approvalroute.ApprovalRoute, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, applicationerrors.ErrInvalidApplicationID
	}
	if _, err := uuid.Parse(approverID); err != nil {
		return nil, nil, applicationerrors.ErrInvalidActorID
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, applicationerrors.ErrApplicationNotFound
		}
		return nil, nil, err
	}

	if IsTerminal(app.Status) {
		return nil, nil, applicationerrors.ErrAlreadyFinalized
	}
	if app.Status != StatusPendingApproval {
		return nil, nil, applicationerrors.ErrNotPending
	}
	if app.ApproverID == nil || app.ApproverID.String() != approverID {
		return nil, nil, applicationerrors.ErrNotCurrentApprover
	}

	route := app.Route
	if route == nil && app.ApprovalRouteID != nil {
		route, err = s.routeRepo.FindByID(ctx, app.ApprovalRouteID.String())
		if err != nil {
			return nil, nil, err
		}
	}
	if route == nil || app.CurrentLevel >= len(route.RouteData.Steps) {
		s.logger.Error("pending application has inconsistent route state",
			zap.String("application_id", id),
			zap.Int("current_level", app.CurrentLevel),
		)
		return nil, nil, applicationerrors.ErrStaleDecision
	}

	return app, route, nil
}

func (s *service) resolveCode(ctx context.Context, codeID string) (*applicationcode.ApplicationCode, error) {
	code, err := s.codeRepo.FindByID(ctx, codeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, applicationerrors.ErrCodeNotFound
		}
		return nil, err
	}
	if !code.IsActive {
		return nil, applicationerrors.ErrCodeInactive
	}
	return code, nil
}

// resolveRoute loads the route and enforces the self-approval rule: an
// applicant appearing anywhere in the chain could wave their own
// application through, so such submissions are refused outright.
func (s *service) resolveRoute(ctx context.Context, routeID string, applicantID uuid.UUID) (*approvalroute.ApprovalRoute, error) {
	route, err := s.routeRepo.FindByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, applicationerrors.ErrRouteNotFound
		}
		return nil, err
	}
	if len(route.RouteData.Steps) == 0 {
		return nil, applicationerrors.ErrRouteNotFound
	}
	for _, step := range route.RouteData.Steps {
		if step.ApproverID == applicantID {
			return nil, applicationerrors.ErrSelfApprovalNotAllowed
		}
	}
	return route, nil
}

func (s *service) nextApplicationNumber(ctx context.Context) (string, error) {
	year := time.Now().UTC().Format("2006")
	next, err := s.counter.GetNextValue(ctx, "application_number", year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("APP-%s-%06d", year, next), nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, event events.ApplicationLifecycleEvent) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal lifecycle event failed", zap.Error(err))
		return err
	}

	outboxRepo := s.outbox.WithTx(tx)
	outboxEvent := kafka.NewEvent(
		event.RequestID,
		"application",
		event.ApplicationID,
		event.EventType,
		events.ApplicationLifecycleTopic,
		payload,
	)
	if err := outboxRepo.Create(ctx, outboxEvent); err != nil {
		s.logger.Error("queue lifecycle event failed",
			zap.String("application_id", event.ApplicationID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

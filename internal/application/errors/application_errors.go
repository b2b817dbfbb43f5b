package applicationerrors

import (
	"net/http"

	"github.com/bp848/prod-bperp/internal/shared/apperror"
)

var (
	ErrApplicationNotFound = apperror.New(
		apperror.CodeNotFound,
		"application not found",
		http.StatusNotFound,
	)
	ErrInvalidApplicationID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid application id",
		http.StatusBadRequest,
	)
	ErrInvalidApplicantID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid applicant id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrCodeNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"application code does not exist",
		http.StatusBadRequest,
	)
	ErrCodeInactive = apperror.New(
		apperror.CodeInvalidInput,
		"application code is no longer active",
		http.StatusBadRequest,
	)
	ErrRouteNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"approval route does not exist",
		http.StatusBadRequest,
	)
	ErrSelfApprovalNotAllowed = apperror.New(
		apperror.CodeInvalidInput,
		"applicant cannot appear as an approver on their own application",
		http.StatusBadRequest,
	)
	ErrNotApplicant = apperror.New(
		apperror.CodeForbidden,
		"only the applicant may act on this draft",
		http.StatusForbidden,
	)
	ErrNotVisible = apperror.New(
		apperror.CodeForbidden,
		"application is not visible to this user",
		http.StatusForbidden,
	)
	ErrNotCurrentApprover = apperror.New(
		apperror.CodeForbidden,
		"user is not the current approver for this application",
		http.StatusForbidden,
	)
	ErrAlreadyFinalized = apperror.New(
		apperror.CodeInvalidState,
		"application has already been approved or rejected",
		http.StatusBadRequest,
	)
	ErrNotPending = apperror.New(
		apperror.CodeInvalidState,
		"application is not pending approval",
		http.StatusBadRequest,
	)
	ErrNotDraft = apperror.New(
		apperror.CodeInvalidState,
		"application is not a draft",
		http.StatusBadRequest,
	)
	ErrStaleDecision = apperror.New(
		apperror.CodeConflict,
		"application changed while the decision was in flight, reload and retry",
		http.StatusConflict,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection reason is required",
		http.StatusBadRequest,
	)
	ErrUnknownFormCode = apperror.New(
		apperror.CodeInvalidInput,
		"no form schema registered for this application code",
		http.StatusBadRequest,
	)
	ErrMalformedFormData = apperror.New(
		apperror.CodeInvalidInput,
		"form data is not a valid JSON object",
		http.StatusBadRequest,
	)
)

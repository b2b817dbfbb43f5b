package approvalrouteerrors

import (
	"net/http"

	"github.com/bp848/prod-bperp/internal/shared/apperror"
)

var (
	ErrRouteNotFound = apperror.New(
		apperror.CodeNotFound,
		"approval route not found",
		http.StatusNotFound,
	)
	ErrInvalidRouteID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approval route id",
		http.StatusBadRequest,
	)
	ErrNameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"route name is required",
		http.StatusBadRequest,
	)
	ErrNameAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"approval route name already in use",
		http.StatusConflict,
	)
	ErrStepsRequired = apperror.New(
		apperror.CodeInvalidInput,
		"approval route needs at least one step",
		http.StatusBadRequest,
	)
	ErrInvalidApproverID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approver id in route steps",
		http.StatusBadRequest,
	)
	ErrDuplicateConsecutiveApprover = apperror.New(
		apperror.CodeInvalidInput,
		"the same approver cannot hold two consecutive steps",
		http.StatusBadRequest,
	)
	ErrApproverNotActive = apperror.New(
		apperror.CodeInvalidInput,
		"every route step must name an active user",
		http.StatusBadRequest,
	)
	ErrRouteInUse = apperror.New(
		apperror.CodeConflict,
		"approval route is referenced by in-flight applications",
		http.StatusConflict,
	)
)

package applicationcodeerrors

import (
	"net/http"

	"github.com/bp848/prod-bperp/internal/shared/apperror"
)

var (
	ErrCodeNotFound = apperror.New(
		apperror.CodeNotFound,
		"application code not found",
		http.StatusNotFound,
	)
	ErrCodeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"application code already exists",
		http.StatusConflict,
	)
	ErrInvalidCodeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid application code id",
		http.StatusBadRequest,
	)
	ErrCodeRequired = apperror.New(
		apperror.CodeInvalidInput,
		"code is required",
		http.StatusBadRequest,
	)
	ErrNameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"name is required",
		http.StatusBadRequest,
	)
)

package application_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bp848/prod-bperp/internal/application"
	applicationerrors "github.com/bp848/prod-bperp/internal/application/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeApplicationService struct {
	submitFn      func(ctx context.Context, applicantID string, req application.SubmitApplicationRequest) (application.ApplicationResponse, error)
	saveDraftFn   func(ctx context.Context, applicantID string, req application.SaveDraftRequest) (application.ApplicationResponse, error)
	updateDraftFn func(ctx context.Context, applicantID, id string, req application.SaveDraftRequest) (application.ApplicationResponse, error)
	submitDraftFn func(ctx context.Context, applicantID, id string, req application.SubmitDraftRequest) (application.ApplicationResponse, error)
	approveFn     func(ctx context.Context, approverID, id string) (application.ApplicationResponse, error)
	rejectFn      func(ctx context.Context, approverID, id, reason string) (application.ApplicationResponse, error)
	listForUserFn func(ctx context.Context, userID string) ([]application.ApplicationResponse, error)
	getByIDFn     func(ctx context.Context, userID, id string) (application.ApplicationResponse, error)
}

func (f *fakeApplicationService) Submit(ctx context.Context, applicantID string, req application.SubmitApplicationRequest) (application.ApplicationResponse, error) {
	return f.submitFn(ctx, applicantID, req)
}
func (f *fakeApplicationService) SaveDraft(ctx context.Context, applicantID string, req application.SaveDraftRequest) (application.ApplicationResponse, error) {
	return f.saveDraftFn(ctx, applicantID, req)
}
func (f *fakeApplicationService) UpdateDraft(ctx context.Context, applicantID, id string, req application.SaveDraftRequest) (application.ApplicationResponse, error) {
	return f.updateDraftFn(ctx, applicantID, id, req)
}
func (f *fakeApplicationService) SubmitDraft(ctx context.Context, applicantID, id string, req application.SubmitDraftRequest) (application.ApplicationResponse, error) {
	return f.submitDraftFn(ctx, applicantID, id, req)
}
func (f *fakeApplicationService) Approve(ctx context.Context, approverID, id string) (application.ApplicationResponse, error) {
	return f.approveFn(ctx, approverID, id)
}
func (f *fakeApplicationService) Reject(ctx context.Context, approverID, id, reason string) (application.ApplicationResponse, error) {
	return f.rejectFn(ctx, approverID, id, reason)
}
func (f *fakeApplicationService) ListForUser(ctx context.Context, userID string) ([]application.ApplicationResponse, error) {
	return f.listForUserFn(ctx, userID)
}
func (f *fakeApplicationService) GetByID(ctx context.Context, userID, id string) (application.ApplicationResponse, error) {
	return f.getByIDFn(ctx, userID, id)
}

func TestApplicationHandler_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		applicantID := uuid.New().String()
		codeID := uuid.New().String()
		routeID := uuid.New().String()

		svc := &fakeApplicationService{
			submitFn: func(ctx context.Context, aid string, req application.SubmitApplicationRequest) (application.ApplicationResponse, error) {
				assert.Equal(t, applicantID, aid)
				assert.Equal(t, codeID, req.ApplicationCodeID)
				assert.Equal(t, routeID, req.ApprovalRouteID)
				return application.ApplicationResponse{
					ID:                uuid.New().String(),
					ApplicationNumber: "APP-2026-000001",
					ApplicantID:       aid,
					Status:            application.StatusPendingApproval,
					CurrentLevel:      0,
				}, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"application_code_id":"` + codeID + `","approval_route_id":"` + routeID + `","form_data":{"title":"t","body":"b"}}`
		c.Request = httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id_validated", applicantID)

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got application.ApplicationResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "APP-2026-000001", got.ApplicationNumber)
		assert.Equal(t, application.StatusPendingApproval, got.Status)
	})

	t.Run("negative missing route id", func(t *testing.T) {
		svc := &fakeApplicationService{}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"application_code_id":"` + uuid.New().String() + `","form_data":{}}`
		c.Request = httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id_validated", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
	})
}

func TestApplicationHandler_Approve(t *testing.T) {
	t.Run("negative wrong approver maps to 403", func(t *testing.T) {
		svc := &fakeApplicationService{
			approveFn: func(ctx context.Context, approverID, id string) (application.ApplicationResponse, error) {
				return application.ApplicationResponse{}, applicationerrors.ErrNotCurrentApprover
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/applications/x/approve", nil)
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
		c.Set("user_id_validated", uuid.New().String())

		h.Approve(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("negative terminal maps to invalid state", func(t *testing.T) {
		svc := &fakeApplicationService{
			approveFn: func(ctx context.Context, approverID, id string) (application.ApplicationResponse, error) {
				return application.ApplicationResponse{}, applicationerrors.ErrAlreadyFinalized
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/applications/x/approve", nil)
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
		c.Set("user_id_validated", uuid.New().String())

		h.Approve(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
	})
}

func TestApplicationHandler_Reject(t *testing.T) {
	t.Run("negative missing reason", func(t *testing.T) {
		svc := &fakeApplicationService{}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/applications/x/reject", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
		c.Set("user_id_validated", uuid.New().String())

		h.Reject(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
	})
}

func TestApplicationHandler_List(t *testing.T) {
	userID := uuid.New().String()

	apps := []application.ApplicationResponse{
		{
			ID:          uuid.New().String(),
			ApplicantID: userID,
			Status:      application.StatusApproved,
		},
		{
			ID:          uuid.New().String(),
			ApplicantID: uuid.New().String(),
			Status:      application.StatusPendingApproval,
			ApproverID:  &userID,
		},
	}

	t.Run("success flat list", func(t *testing.T) {
		svc := &fakeApplicationService{
			listForUserFn: func(ctx context.Context, uid string) ([]application.ApplicationResponse, error) {
				assert.Equal(t, userID, uid)
				return apps, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/applications", nil)
		c.Set("user_id_validated", userID)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got []application.ApplicationResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Len(t, got, 2)
	})

	t.Run("success grouped view", func(t *testing.T) {
		svc := &fakeApplicationService{
			listForUserFn: func(ctx context.Context, uid string) ([]application.ApplicationResponse, error) {
				return apps, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/applications?grouped=true", nil)
		c.Set("user_id_validated", userID)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got application.ApplicationPartitions
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Len(t, got.Pending, 1)
		assert.Len(t, got.Completed, 1)
		assert.Len(t, got.Submitted, 1)
		assert.Equal(t, got.Submitted[0].ID, got.Completed[0].ID)
	})
}

package application

import (
	"encoding/json"
	"time"
)

type SubmitApplicationRequest struct {
	ApplicationCodeID string          `json:"application_code_id" binding:"required,uuid"`
	ApprovalRouteID   string          `json:"approval_route_id" binding:"required,uuid"`
	FormData          json.RawMessage `json:"form_data" binding:"required"`
}

type SaveDraftRequest struct {
	ApplicationCodeID string          `json:"application_code_id" binding:"required,uuid"`
	FormData          json.RawMessage `json:"form_data" binding:"required"`
}

type SubmitDraftRequest struct {
	ApprovalRouteID string `json:"approval_route_id" binding:"required,uuid"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ApplicationResponse struct {
	ID                string          `json:"id"`
	ApplicationNumber string          `json:"application_number"`
	ApplicantID       string          `json:"applicant_id"`
	ApplicantName     string          `json:"applicant_name,omitempty"`
	CodeID            string          `json:"application_code_id"`
	Code              string          `json:"code,omitempty"`
	CodeName          string          `json:"code_name,omitempty"`
	RouteID           *string         `json:"approval_route_id,omitempty"`
	RouteName         string          `json:"route_name,omitempty"`
	Status            string          `json:"status"`
	CurrentLevel      int             `json:"current_level"`
	TotalLevels       int             `json:"total_levels,omitempty"`
	ApproverID        *string         `json:"approver_id,omitempty"`
	ApproverName      string          `json:"approver_name,omitempty"`
	FormData          json.RawMessage `json:"form_data,omitempty"`
	RejectionReason   *string         `json:"rejection_reason,omitempty"`
	SubmittedAt       *string         `json:"submitted_at,omitempty"`
	ApprovedAt        *string         `json:"approved_at,omitempty"`
	RejectedAt        *string         `json:"rejected_at,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

// ApplicationPartitions is the grouped view of one user's applications.
// The buckets are overlapping filters over the same flat list, not a
// partition in the strict sense: the user's own application stays in
// submitted for its whole life and additionally shows up in completed
// once it reaches a terminal status.
type ApplicationPartitions struct {
	Pending   []ApplicationResponse `json:"pending"`
	Submitted []ApplicationResponse `json:"submitted"`
	Completed []ApplicationResponse `json:"completed"`
}

// PartitionForUser applies three independent filters: pending holds
// items waiting on the user's decision, submitted holds everything the
// user authored (drafts included), completed holds terminal items.
func PartitionForUser(userID string, apps []ApplicationResponse) ApplicationPartitions {
	p := ApplicationPartitions{
		Pending:   []ApplicationResponse{},
		Submitted: []ApplicationResponse{},
		Completed: []ApplicationResponse{},
	}

	for _, a := range apps {
		if a.Status == StatusPendingApproval &&
			a.ApproverID != nil && *a.ApproverID == userID {
			p.Pending = append(p.Pending, a)
		}
		if a.ApplicantID == userID {
			p.Submitted = append(p.Submitted, a)
		}
		if IsTerminal(a.Status) {
			p.Completed = append(p.Completed, a)
		}
	}

	return p
}

func mapToResponse(a Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:                a.ID.String(),
		ApplicationNumber: a.ApplicationNumber,
		ApplicantID:       a.ApplicantID.String(),
		CodeID:            a.ApplicationCodeID.String(),
		Status:            a.Status,
		CurrentLevel:      a.CurrentLevel,
		FormData:          json.RawMessage(a.FormData),
		RejectionReason:   a.RejectionReason,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}

	if a.ApprovalRouteID != nil {
		v := a.ApprovalRouteID.String()
		resp.RouteID = &v
	}
	if a.ApproverID != nil {
		v := a.ApproverID.String()
		resp.ApproverID = &v
	}
	if a.SubmittedAt != nil {
		v := a.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &v
	}
	if a.ApprovedAt != nil {
		v := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if a.RejectedAt != nil {
		v := a.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &v
	}

	if a.Applicant != nil {
		resp.ApplicantName = a.Applicant.Name
	}
	if a.Code != nil {
		resp.Code = a.Code.Code
		resp.CodeName = a.Code.Name
	}
	if a.Route != nil {
		resp.RouteName = a.Route.Name
		resp.TotalLevels = len(a.Route.RouteData.Steps)
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.Name
	}

	return resp
}

func mapToListResponse(apps []Application) []ApplicationResponse {
	resp := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = mapToResponse(a)
	}
	return resp
}

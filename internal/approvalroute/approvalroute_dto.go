package approvalroute

type RouteStepRequest struct {
	ApproverID string `json:"approver_id" binding:"required,uuid"`
}

type CreateApprovalRouteRequest struct {
	Name  string             `json:"name" binding:"required"`
	Steps []RouteStepRequest `json:"steps" binding:"required,min=1,dive"`
}

// UpdateApprovalRouteRequest carries optional fields; nil means leave
// the field as it is.
type UpdateApprovalRouteRequest struct {
	Name  *string            `json:"name"`
	Steps []RouteStepRequest `json:"steps"`
}

type RouteStepResponse struct {
	Level      int    `json:"level"`
	ApproverID string `json:"approver_id"`
}

type ApprovalRouteResponse struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Steps []RouteStepResponse `json:"steps"`
}

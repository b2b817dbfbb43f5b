package application

import (
	"bytes"
	"encoding/json"
	"time"

	applicationerrors "github.com/bp848/prod-bperp/internal/application/errors"
	"github.com/bp848/prod-bperp/internal/applicationcode"
	"github.com/bp848/prod-bperp/internal/shared/apperror"
)

// One form payload type per application code. The engine validates the
// payload here on submit and treats it as opaque JSONB afterwards, so a
// new form type only touches this file.

type ExpenseItem struct {
	PaymentDate        string  `json:"paymentDate"`
	Recipient          string  `json:"recipient"`
	Description        string  `json:"description"`
	CostType           string  `json:"costType"`
	AccountItem        string  `json:"accountItem"`
	AllocationDivision string  `json:"allocationDivision"`
	Amount             float64 `json:"amount"`
}

type ExpenseForm struct {
	Department string        `json:"department"`
	Items      []ExpenseItem `json:"items"`
	Notes      string        `json:"notes"`
	Total      float64       `json:"total"`
}

type TransportItem struct {
	UsageDate string  `json:"usageDate"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
}

type TransportForm struct {
	Items []TransportItem `json:"items"`
	Total float64         `json:"total"`
}

type LeaveForm struct {
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

type RingiForm struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type DailyReportForm struct {
	ReportDate string `json:"reportDate"`
	Content    string `json:"content"`
}

type WeeklyReportForm struct {
	WeekStart string `json:"weekStart"`
	WeekEnd   string `json:"weekEnd"`
	Content   string `json:"content"`
}

// ValidateFormData checks the payload against the schema implied by the
// application code. Unknown codes are rejected so a typo in reference
// data cannot smuggle an unvalidated payload through.
func ValidateFormData(code string, raw []byte) error {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return apperror.RequiredField("formData")
	}

	switch code {
	case applicationcode.CodeExpense:
		return validateExpense(raw)
	case applicationcode.CodeTransport:
		return validateTransport(raw)
	case applicationcode.CodeLeave:
		return validateLeave(raw)
	case applicationcode.CodeRingi:
		return validateRingi(raw)
	case applicationcode.CodeDailyReport:
		return validateDailyReport(raw)
	case applicationcode.CodeWeeklyReport:
		return validateWeeklyReport(raw)
	default:
		return applicationerrors.ErrUnknownFormCode
	}
}

func validateExpense(raw []byte) error {
	var form ExpenseForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return applicationerrors.ErrMalformedFormData
	}
	if form.Department == "" {
		return apperror.RequiredField("department")
	}
	if len(form.Items) == 0 {
		return apperror.RequiredField("items")
	}

	var sum float64
	for _, item := range form.Items {
		if _, err := parseFormDate(item.PaymentDate); err != nil {
			return apperror.InvalidField("items.paymentDate")
		}
		if item.Recipient == "" {
			return apperror.RequiredField("items.recipient")
		}
		if item.Description == "" {
			return apperror.RequiredField("items.description")
		}
		if item.CostType != "V" && item.CostType != "F" {
			return apperror.InvalidField("items.costType")
		}
		if item.AccountItem == "" {
			return apperror.RequiredField("items.accountItem")
		}
		if item.AllocationDivision == "" {
			return apperror.RequiredField("items.allocationDivision")
		}
		if item.Amount <= 0 {
			return apperror.InvalidField("items.amount")
		}
		sum += item.Amount
	}

	if form.Total != sum {
		return apperror.InvalidField("total")
	}
	return nil
}

func validateTransport(raw []byte) error {
	var form TransportForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return applicationerrors.ErrMalformedFormData
	}
	if len(form.Items) == 0 {
		return apperror.RequiredField("items")
	}

	var sum float64
	for _, item := range form.Items {
		if _, err := parseFormDate(item.UsageDate); err != nil {
			return apperror.InvalidField("items.usageDate")
		}
		if item.From == "" {
			return apperror.RequiredField("items.from")
		}
		if item.To == "" {
			return apperror.RequiredField("items.to")
		}
		if item.Method == "" {
			return apperror.RequiredField("items.method")
		}
		if item.Amount <= 0 {
			return apperror.InvalidField("items.amount")
		}
		sum += item.Amount
	}

	if form.Total != sum {
		return apperror.InvalidField("total")
	}
	return nil
}

func validateLeave(raw []byte) error {
	var form LeaveForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return applicationerrors.ErrMalformedFormData
	}
	if form.LeaveType == "" {
		return apperror.RequiredField("leaveType")
	}
	start, err := parseFormDate(form.StartDate)
	if err != nil {
		return apperror.InvalidField("startDate")
	}
	end, err := parseFormDate(form.EndDate)
	if err != nil {
		return apperror.InvalidField("endDate")
	}
	if start.After(end) {
		return apperror.InvalidField("endDate")
	}
	if form.Reason == "" {
		return apperror.RequiredField("reason")
	}
	return nil
}

func validateRingi(raw []byte) error {
	var form RingiForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return applicationerrors.ErrMalformedFormData
	}
	if form.Title == "" {
		return apperror.RequiredField("title")
	}
	if form.Body == "" {
		return apperror.RequiredField("body")
	}
	return nil
}

func validateDailyReport(raw []byte) error {
	var form DailyReportForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return applicationerrors.ErrMalformedFormData
	}
	if _, err := parseFormDate(form.ReportDate); err != nil {
		return apperror.InvalidField("reportDate")
	}
	if form.Content == "" {
		return apperror.RequiredField("content")
	}
	return nil
}

func validateWeeklyReport(raw []byte) error {
	var form WeeklyReportForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return applicationerrors.ErrMalformedFormData
	}
	start, err := parseFormDate(form.WeekStart)
	if err != nil {
		return apperror.InvalidField("weekStart")
	}
	end, err := parseFormDate(form.WeekEnd)
	if err != nil {
		return apperror.InvalidField("weekEnd")
	}
	if start.After(end) {
		return apperror.InvalidField("weekEnd")
	}
	if form.Content == "" {
		return apperror.RequiredField("content")
	}
	return nil
}

func parseFormDate(v string) (time.Time, error) {
	return time.Parse("2006-01-02", v)
}

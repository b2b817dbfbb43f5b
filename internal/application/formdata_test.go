package application_test

import (
	"testing"

	"github.com/bp848/prod-bperp/internal/application"
	applicationerrors "github.com/bp848/prod-bperp/internal/application/errors"
	"github.com/bp848/prod-bperp/internal/applicationcode"

	"github.com/stretchr/testify/assert"
)

func TestValidateFormData_Expense(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		payload := []byte(`{
			"department": "Sales",
			"items": [
				{"paymentDate":"2026-08-01","recipient":"Office Depot","description":"Chairs","costType":"F","accountItem":"supplies","allocationDivision":"HQ","amount":1200},
				{"paymentDate":"2026-08-03","recipient":"Cafe","description":"Client lunch","costType":"V","accountItem":"entertainment","allocationDivision":"HQ","amount":80}
			],
			"notes": "",
			"total": 1280
		}`)

		err := application.ValidateFormData(applicationcode.CodeExpense, payload)
		assert.NoError(t, err)
	})

	t.Run("negative total mismatch", func(t *testing.T) {
		payload := []byte(`{
			"department": "Sales",
			"items": [{"paymentDate":"2026-08-01","recipient":"A","description":"d","costType":"F","accountItem":"x","allocationDivision":"HQ","amount":100}],
			"total": 999
		}`)

		err := application.ValidateFormData(applicationcode.CodeExpense, payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "total")
	})

	t.Run("negative zero amount", func(t *testing.T) {
		payload := []byte(`{
			"department": "Sales",
			"items": [{"paymentDate":"2026-08-01","recipient":"A","description":"d","costType":"F","accountItem":"x","allocationDivision":"HQ","amount":0}],
			"total": 0
		}`)

		err := application.ValidateFormData(applicationcode.CodeExpense, payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "amount")
	})

	t.Run("negative bad cost type", func(t *testing.T) {
		payload := []byte(`{
			"department": "Sales",
			"items": [{"paymentDate":"2026-08-01","recipient":"A","description":"d","costType":"X","accountItem":"x","allocationDivision":"HQ","amount":10}],
			"total": 10
		}`)

		err := application.ValidateFormData(applicationcode.CodeExpense, payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "costType")
	})

	t.Run("negative no items", func(t *testing.T) {
		payload := []byte(`{"department":"Sales","items":[],"total":0}`)

		err := application.ValidateFormData(applicationcode.CodeExpense, payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "items")
	})
}

func TestValidateFormData_Transport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		payload := []byte(`{
			"items": [{"usageDate":"2026-08-10","from":"Tokyo","to":"Osaka","method":"train","amount":13000}],
			"total": 13000
		}`)

		err := application.ValidateFormData(applicationcode.CodeTransport, payload)
		assert.NoError(t, err)
	})

	t.Run("negative missing destination", func(t *testing.T) {
		payload := []byte(`{
			"items": [{"usageDate":"2026-08-10","from":"Tokyo","to":"","method":"train","amount":13000}],
			"total": 13000
		}`)

		err := application.ValidateFormData(applicationcode.CodeTransport, payload)
		assert.Error(t, err)
	})
}

func TestValidateFormData_Leave(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		payload := []byte(`{"leaveType":"ANNUAL","startDate":"2026-09-01","endDate":"2026-09-03","reason":"vacation"}`)

		err := application.ValidateFormData(applicationcode.CodeLeave, payload)
		assert.NoError(t, err)
	})

	t.Run("success single day", func(t *testing.T) {
		payload := []byte(`{"leaveType":"SICK","startDate":"2026-09-01","endDate":"2026-09-01","reason":"flu"}`)

		err := application.ValidateFormData(applicationcode.CodeLeave, payload)
		assert.NoError(t, err)
	})

	t.Run("negative end before start", func(t *testing.T) {
		payload := []byte(`{"leaveType":"ANNUAL","startDate":"2026-09-03","endDate":"2026-09-01","reason":"vacation"}`)

		err := application.ValidateFormData(applicationcode.CodeLeave, payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "endDate")
	})
}

func TestValidateFormData_Reports(t *testing.T) {
	t.Run("success ringi", func(t *testing.T) {
		err := application.ValidateFormData(applicationcode.CodeRingi,
			[]byte(`{"title":"Buy scanner","body":"The old one died."}`))
		assert.NoError(t, err)
	})

	t.Run("success daily report", func(t *testing.T) {
		err := application.ValidateFormData(applicationcode.CodeDailyReport,
			[]byte(`{"reportDate":"2026-08-31","content":"Visited two clients."}`))
		assert.NoError(t, err)
	})

	t.Run("negative weekly report range", func(t *testing.T) {
		err := application.ValidateFormData(applicationcode.CodeWeeklyReport,
			[]byte(`{"weekStart":"2026-08-31","weekEnd":"2026-08-24","content":"w35"}`))
		assert.Error(t, err)
	})
}

func TestValidateFormData_Envelope(t *testing.T) {
	t.Run("negative unknown code", func(t *testing.T) {
		err := application.ValidateFormData("PURCHASE", []byte(`{}`))
		assert.ErrorIs(t, err, applicationerrors.ErrUnknownFormCode)
	})

	t.Run("negative empty payload", func(t *testing.T) {
		err := application.ValidateFormData(applicationcode.CodeRingi, nil)
		assert.Error(t, err)
	})

	t.Run("negative not json", func(t *testing.T) {
		err := application.ValidateFormData(applicationcode.CodeRingi, []byte(`not-json`))
		assert.ErrorIs(t, err, applicationerrors.ErrMalformedFormData)
	})
}

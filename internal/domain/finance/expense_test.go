package finance

import (
	"testing"
	"time"

	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

func TestNewExpense(t *testing.T) {
	paid := time.Date(2026, time.March, 4, 0, 0, 0, 0, wib)

	t.Run("recurring template", func(t *testing.T) {
		e, err := NewExpense(ExpenseInput{Name: "Upstream bandwidth", Category: ExpenseCategoryFixed, Amount: 2500000, DueDay: 5})
		require.NoError(t, err)
		assert.True(t, e.IsTemplate())
		assert.Equal(t, 5, e.DueDay)
	})

	t.Run("realized expense ignores due day", func(t *testing.T) {
		e, err := NewExpense(ExpenseInput{Name: "Cable", Category: ExpenseCategoryOther, Amount: 350000, DueDay: 9, Date: &paid})
		require.NoError(t, err)
		assert.True(t, e.IsRealized())
		assert.Equal(t, 0, e.DueDay)
		assert.Equal(t, paid, *e.Date)
	})

	tests := []struct {
		name string
		in   ExpenseInput
		code string
	}{
		{"empty name", ExpenseInput{Category: ExpenseCategoryOther, Amount: 1, Date: &paid}, "INVALID_NAME"},
		{"bad category", ExpenseInput{Name: "x", Category: "rent", Amount: 1, Date: &paid}, "INVALID_CATEGORY"},
		{"zero amount", ExpenseInput{Name: "x", Category: ExpenseCategoryOther, Date: &paid}, "INVALID_AMOUNT"},
		{"template without due day", ExpenseInput{Name: "x", Category: ExpenseCategoryFixed, Amount: 1}, "INVALID_DUE_DAY"},
		{"installment without tenor", ExpenseInput{Name: "x", Category: ExpenseCategoryInstallment, Amount: 1, DueDay: 3}, "INVALID_TENOR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpense(tt.in)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestExpense_PayPeriod(t *testing.T) {
	period := billing.Period{Year: 2026, Month: time.February}

	t.Run("fixed template produces a dated copy", func(t *testing.T) {
		tpl, err := NewExpense(ExpenseInput{Name: "Tower rent", Category: ExpenseCategoryFixed, Amount: 1000000, DueDay: 30})
		require.NoError(t, err)

		realized, err := tpl.PayPeriod(period, wib)
		require.NoError(t, err)
		assert.Equal(t, "Tower rent 2026-02", realized.Name)
		assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, wib), *realized.Date)
		assert.Equal(t, valueobject.Money(1000000), realized.Amount)
		assert.Equal(t, tpl.ID, *realized.TemplateID)
		assert.True(t, tpl.IsTemplate())
	})

	t.Run("installment advances tenor until paid off", func(t *testing.T) {
		tpl, err := NewExpense(ExpenseInput{Name: "OLT", Category: ExpenseCategoryInstallment, Amount: 500000, DueDay: 10, Tenor: 2})
		require.NoError(t, err)

		first, err := tpl.PayPeriod(period, wib)
		require.NoError(t, err)
		assert.Equal(t, "OLT (1/2)", first.Name)

		_, err = tpl.PayPeriod(period.AddMonths(1), wib)
		require.NoError(t, err)
		assert.True(t, tpl.IsPaidOff())

		_, err = tpl.PayPeriod(period.AddMonths(2), wib)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INSTALLMENT_PAID_OFF", de.Code)
	})

	t.Run("realized expense cannot be paid again", func(t *testing.T) {
		d := time.Date(2026, time.January, 2, 0, 0, 0, 0, wib)
		e, err := NewExpense(ExpenseInput{Name: "Fuel", Category: ExpenseCategoryOther, Amount: 1, Date: &d})
		require.NoError(t, err)
		_, err = e.PayPeriod(period, wib)
		assert.Error(t, err)
	})
}

func TestNewOtherIncome(t *testing.T) {
	d := time.Date(2026, time.March, 2, 0, 0, 0, 0, wib)
	inc, err := NewOtherIncome(" Router sale ", 450000, d, "")
	require.NoError(t, err)
	assert.Equal(t, "Router sale", inc.Name)

	_, err = NewOtherIncome("Router sale", 450000, time.Time{}, "")
	assert.Error(t, err)
	_, err = NewOtherIncome("Router sale", 0, d, "")
	assert.Error(t, err)
}

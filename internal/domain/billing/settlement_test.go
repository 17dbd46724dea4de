package billing

import (
	"testing"

	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle(t *testing.T) {
	t.Run("discount and credit reduce the amount due", func(t *testing.T) {
		s, err := Settle(SettlementInput{
			Bills:           []valueobject.Money{100000},
			Discount:        10000,
			AvailableCredit: 20000,
			Paid:            70000,
		})
		require.NoError(t, err)
		assert.Equal(t, valueobject.Money(100000), s.TotalBill)
		assert.Equal(t, valueobject.Money(20000), s.CreditApplied)
		assert.Equal(t, valueobject.Money(70000), s.TotalPayment)
		assert.Equal(t, valueobject.Zero, s.Change)
		assert.False(t, s.Partial)
	})

	t.Run("overpayment becomes change", func(t *testing.T) {
		s, err := Settle(SettlementInput{
			Bills: []valueobject.Money{100000, 100000},
			Paid:  250000,
		})
		require.NoError(t, err)
		assert.Equal(t, valueobject.Money(200000), s.TotalPayment)
		assert.Equal(t, valueobject.Money(50000), s.Change)
	})

	t.Run("credit larger than the bill is only partly used", func(t *testing.T) {
		s, err := Settle(SettlementInput{
			Bills:           []valueobject.Money{100000},
			AvailableCredit: 300000,
		})
		require.NoError(t, err)
		assert.Equal(t, valueobject.Money(100000), s.CreditApplied)
		assert.Equal(t, valueobject.Zero, s.TotalPayment)
		assert.Equal(t, valueobject.Zero, s.Change)
	})

	t.Run("underpayment is rejected unless partial is allowed", func(t *testing.T) {
		in := SettlementInput{Bills: []valueobject.Money{100000}, Paid: 40000}
		_, err := Settle(in)
		assert.ErrorIs(t, err, shared.ErrInsufficientPaid)

		in.AllowPartial = true
		s, err := Settle(in)
		require.NoError(t, err)
		assert.True(t, s.Partial)
		assert.Equal(t, valueobject.Money(100000), s.AmountDue)
		assert.Equal(t, valueobject.Money(40000), s.TotalPayment)
		assert.Equal(t, valueobject.Zero, s.Change)
	})

	t.Run("distributable equals total payment", func(t *testing.T) {
		s, err := Settle(SettlementInput{Bills: []valueobject.Money{75000}, Discount: 5000, Paid: 100000})
		require.NoError(t, err)
		assert.Equal(t, s.TotalPayment, s.Paid-s.Change)
	})

	tests := []struct {
		name string
		in   SettlementInput
		code string
	}{
		{name: "negative discount", in: SettlementInput{Bills: []valueobject.Money{1}, Discount: -1}, code: "INVALID_AMOUNT"},
		{name: "negative bill", in: SettlementInput{Bills: []valueobject.Money{-1}}, code: "INVALID_AMOUNT"},
		{name: "negative paid", in: SettlementInput{Bills: []valueobject.Money{1}, Paid: -1}, code: "INVALID_AMOUNT"},
		{name: "discount above bill", in: SettlementInput{Bills: []valueobject.Money{100}, Discount: 101}, code: "INVALID_DISCOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Settle(tt.in)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

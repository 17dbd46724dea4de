package billing

import (
	"testing"
	"time"

	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	valid := CustomerProfile{
		Name:         "  Andi  ",
		PackageTier:  "10 Mbps",
		PackagePrice: 150000,
		DueDay:       5,
		InstalledAt:  date(2026, time.January, 3),
	}

	t.Run("creates customer", func(t *testing.T) {
		c, err := NewCustomer(valid)
		require.NoError(t, err)
		assert.Equal(t, "Andi", c.Name)
		assert.Equal(t, 1, c.Version)
		assert.True(t, c.IsBillable())
		assert.Equal(t, valueobject.Zero, c.CreditBalance)
	})

	tests := []struct {
		name   string
		mutate func(p *CustomerProfile)
		code   string
	}{
		{"empty name", func(p *CustomerProfile) { p.Name = " " }, "INVALID_NAME"},
		{"negative price", func(p *CustomerProfile) { p.PackagePrice = -1 }, "INVALID_PACKAGE_PRICE"},
		{"due day zero", func(p *CustomerProfile) { p.DueDay = 0 }, "INVALID_DUE_DAY"},
		{"due day 32", func(p *CustomerProfile) { p.DueDay = 32 }, "INVALID_DUE_DAY"},
		{"no installation date", func(p *CustomerProfile) { p.InstalledAt = time.Time{} }, "INVALID_INSTALLATION_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := NewCustomer(p)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestCustomer_Credit(t *testing.T) {
	c := testCustomer(t, "Rina", 100000, 1)

	require.NoError(t, c.AddCredit(20000))
	require.NoError(t, c.UseCredit(5000))
	assert.Equal(t, valueobject.Money(15000), c.CreditBalance)

	err := c.UseCredit(50000)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INSUFFICIENT_CREDIT", de.Code)

	assert.Error(t, c.AddCredit(-1))
}

func TestCustomer_UpdateProfile(t *testing.T) {
	c := testCustomer(t, "Rina", 100000, 1)
	err := c.UpdateProfile(CustomerProfile{
		Name:         "Rina S",
		PackageTier:  "50 Mbps",
		PackagePrice: 300000,
		DueDay:       15,
		InstalledAt:  c.InstalledAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "50 Mbps", c.PackageTier)
	assert.Equal(t, 2, c.Version)
}

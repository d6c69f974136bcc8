package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

func TestNewDefinition_GeneratesID(t *testing.T) {
	d := NewDefinition("", "always-flat", AlwaysFlat())
	assert.NotEmpty(t, d.ID)

	d = NewDefinition("fixed", "always-flat", AlwaysFlat())
	assert.Equal(t, "fixed", d.ID)
}

func TestNewRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"always-flat", "buy-and-hold", "sma-cross", "rsi-reversion"} {
		d, ok := r.Get(name)
		require.True(t, ok, "falta la política integrada %s", name)
		assert.Equal(t, name, d.Name)
		assert.NotNil(t, d.Decide)
	}
	assert.Len(t, r.Names(), 4)
}

func TestSMACross(t *testing.T) {
	policy := SMACross(2, 4, 1)

	// Sin historia suficiente: plano.
	assert.Equal(t, domain.Flat(), policy(dailyKlines(100, 101, 102)))

	// Tendencia alcista: la media corta supera a la larga.
	assert.Equal(t, domain.Long(1), policy(dailyKlines(100, 101, 102, 103, 104)))

	// Tendencia bajista: cruce inverso.
	assert.Equal(t, domain.Short(1), policy(dailyKlines(104, 103, 102, 101, 100)))
}

func TestRSIReversion(t *testing.T) {
	policy := RSIReversion(4, 30, 70, 1)

	// Sin historia suficiente: plano.
	assert.Equal(t, domain.Flat(), policy(dailyKlines(100, 101)))

	// Solo caídas: RSI 0, compra la sobreventa.
	assert.Equal(t, domain.Long(1), policy(dailyKlines(104, 103, 102, 101, 100)))

	// Solo subidas: RSI 100, vende la sobrecompra.
	assert.Equal(t, domain.Short(1), policy(dailyKlines(100, 101, 102, 103, 104)))

	// Alternancia equilibrada: RSI 50, plano.
	assert.Equal(t, domain.Flat(), policy(dailyKlines(100, 102, 100, 102, 100)))
}

package registry

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-gate/internal/scanners/gosec"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"gosec"}, r.Names())

	f, err := r.Lookup("gosec")
	require.NoError(t, err)
	_, ok := f(hclog.NewNullLogger()).(*gosec.Scanner)
	assert.True(t, ok)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Default().Lookup("bandit")
	assert.ErrorIs(t, err, ErrUnknownScanner)
	assert.ErrorContains(t, err, `"bandit"`)
}

func TestRegister(t *testing.T) {
	r := New()
	r.Register("zeta", func(hclog.Logger) shared.Scanner { return nil })
	r.Register("alpha", func(hclog.Logger) shared.Scanner { return nil })

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_SortedAndNonEmpty(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "0001_user_onboarding", versions[0])
	assert.IsNonDecreasing(t, versions)
}

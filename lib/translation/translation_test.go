package translation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslate_FallsBackToMessageID(t *testing.T) {
	Configure(t.TempDir(), "EN")

	require.Equal(t, "You have no alerts\\.", Translate("You have no alerts\\."))
	require.Equal(t, "All 3 cleared", Translate("All %d cleared", 3))
	require.Equal(t, "en", GetLanguage())
}

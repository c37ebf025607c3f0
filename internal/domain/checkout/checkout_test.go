package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFormattedSkipsBlankParts(t *testing.T) {
	a := Address{
		Line1:      "12 Brush St",
		Line2:      "",
		City:       "Lisbon",
		State:      "  ",
		PostalCode: "1100",
		Country:    "PT",
	}
	assert.Equal(t, "12 Brush St Lisbon 1100 PT", a.Formatted())
	assert.Equal(t, "", Address{}.Formatted())
}

func TestArtworkRefRoundTrip(t *testing.T) {
	for _, id := range []int64{0, 1, 42, 9223372036854775807} {
		decoded, err := DecodeArtworkRef(EncodeArtworkRef(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeArtworkRefRejectsGarbage(t *testing.T) {
	for _, ref := range []string{"", "Sunset over water", "12.5", "12x"} {
		_, err := DecodeArtworkRef(ref)
		assert.Error(t, err, "ref %q", ref)
	}
}

package checkout

import (
	"fmt"
	"strconv"
)

// The provider does not round-trip a caller-supplied opaque identifier per
// line item, so the artwork id is smuggled through the product-name field
// and read back from the line item's description. Both directions live here
// so the mechanism can be swapped for a provider-native metadata field if
// one becomes available.

func EncodeArtworkRef(artworkID int64) string {
	return strconv.FormatInt(artworkID, 10)
}

func DecodeArtworkRef(ref string) (int64, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("checkout: line item ref %q is not an artwork id: %w", ref, err)
	}
	return id, nil
}

package knowledge

import (
	"math"
	"strings"
)

// stegoMarkers are literal steganography tool signatures, grounded
// verbatim on original_source's StegoDetector::checkKnownSignatures.
var stegoMarkers = []string{
	"STEGO_START_MARKER_XYZ",
	"ST3G0_END_MARKER_ABC",
}

const hiddenMessageTag = "hidden_message_tag"

// DetectSteganography runs the two-pass heuristic check from
// original_source's StegoDetector: entropy first, then known markers
// (spec.md §4.10 step 5). entropyMax is the configured threshold
// (default 7.0).
func DetectSteganography(data string, entropyMax float64) bool {
	if shannonEntropy(data) > entropyMax {
		return true
	}
	for _, m := range stegoMarkers {
		if strings.Contains(data, m) {
			return true
		}
	}
	return strings.Contains(data, hiddenMessageTag)
}

func shannonEntropy(data string) float64 {
	if data == "" {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(data); i++ {
		freq[data[i]]++
	}
	n := float64(len(data))
	var entropy float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

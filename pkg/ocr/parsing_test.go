package ocr

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"1.234,5":    "1234.5",
		"15.320":     "15320",
		"1234.5":     "1234.5",
		"1234,50":    "1234.5",
		"12.345.678": "12345678",
		"1,234.56":   "1234.56",
		"980 kg":     "980",
		"7.500,00KG": "7500",
		"42":         "42",
	}
	for in, want := range cases {
		got, err := ParseNumber(in)
		require.NoError(t, err, in)
		assert.True(t, dec(want).Equal(got), "%s: want %s got %s", in, want, got)
	}
}

func TestParseNumberRejects(t *testing.T) {
	for _, in := range []string{"", "kg", "1,2,3"} {
		_, err := ParseNumber(in)
		assert.Error(t, err, in)
	}
}

func TestParseWeightsLabeled(t *testing.T) {
	text := `BALANCA RODOVIARIA
	TICKET 000123  DATA 14/03/2025
	PESO BRUTO: 15.320 KG
	TARA:        9.100 KG
	PESO LÍQUIDO: 6.220 KG`
	w, err := ParseWeights(text)
	require.NoError(t, err)
	assert.True(t, dec("15320").Equal(w.Bruto))
	assert.True(t, dec("9100").Equal(w.Tara))
	assert.True(t, dec("6220").Equal(w.Liquido))
	assert.Empty(t, w.Inferred)
	assert.InDelta(t, 0.95, w.Confidence, 0.001)
}

func TestParseWeightsInfersMissing(t *testing.T) {
	w, err := ParseWeights("bruto 1.250,5 kg tara 50,5 kg")
	require.NoError(t, err)
	assert.True(t, dec("1200").Equal(w.Liquido))
	assert.Equal(t, "peso_liquido", w.Inferred)

	w, err = ParseWeights("BRUTO 1000 LIQ. 940")
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(w.Tara))
	assert.Equal(t, "tara", w.Inferred)

	w, err = ParseWeights("TARA 200 LIQUIDO 800")
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(w.Bruto))
	assert.Equal(t, "peso_bruto", w.Inferred)
}

func TestParseWeightsInconsistentNetIsRecomputed(t *testing.T) {
	w, err := ParseWeights("BRUTO 1000 TARA 100 LIQUIDO 500")
	require.NoError(t, err)
	assert.True(t, dec("900").Equal(w.Liquido))
	assert.Less(t, w.Confidence, 0.95)
}

func TestParseWeightsRejectsTareAboveGross(t *testing.T) {
	_, err := ParseWeights("BRUTO 100 KG TARA 300 KG")
	assert.ErrorIs(t, err, ErrNoWeight)
}

func TestParseWeightsUnlabeled(t *testing.T) {
	w, err := ParseWeights("12.000 KG 4.000 KG 8.000 KG")
	require.NoError(t, err)
	assert.True(t, dec("12000").Equal(w.Bruto))
	assert.True(t, dec("4000").Equal(w.Tara))
	assert.True(t, dec("8000").Equal(w.Liquido))
	assert.InDelta(t, 0.6, w.Confidence, 0.001)
}

func TestParseWeightsNothing(t *testing.T) {
	_, err := ParseWeights("OBRIGADO PELA PREFERENCIA 14/03/2025")
	assert.ErrorIs(t, err, ErrNoWeight)
	_, err = ParseWeights("")
	assert.ErrorIs(t, err, ErrNoWeight)
}

func TestParseWeightsIgnoresImplausible(t *testing.T) {
	_, err := ParseWeights("BRUTO 99999999 TARA 10")
	assert.ErrorIs(t, err, ErrNoWeight)
}

func TestBestReadingPrefersConfidence(t *testing.T) {
	w, err := BestReading([]string{
		"1.000 KG 200 KG",
		"BRUTO 1.000 TARA 200 LIQUIDO 800",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.95, w.Confidence, 0.001)
}

func TestBestReadingJoinsPasses(t *testing.T) {
	w, err := BestReading([]string{"BRUTO", "500 TARA 20"})
	require.NoError(t, err)
	assert.True(t, dec("480").Equal(w.Liquido))
	assert.InDelta(t, 0.4, w.Confidence, 0.001)
}

func TestAdaptiveThresholdKeepsBounds(t *testing.T) {
	img := imaging.New(40, 20, color.NRGBA{200, 200, 200, 255})
	out := adaptiveThreshold(img, 4, 5)
	assert.Equal(t, img.Bounds(), out.Bounds())
	// uniform input has no pixel darker than its neighbourhood
	assert.Equal(t, uint8(255), out.Pix[0])
}

func TestExtractWeightsMissingFile(t *testing.T) {
	_, err := ExtractWeightsFromImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoWeight)
}

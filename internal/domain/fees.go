package domain

import "math"

// MaxPlatformFeeOverride caps per-company overrides; anything above it is
// treated as misconfiguration and ignored in favor of the global default.
const MaxPlatformFeeOverride = 0.50

// ComputeFeeQuote splits a gross sale amount into platform fee, processing fee
// and net. All four monetary fields are rounded half-up to cents. Any residual
// cent from rounding lands in NetAmount, never in a fee amount, so the stated
// fee percentages are never silently inflated.
func ComputeFeeQuote(grossAmount, platformPct, processingPct float64, isCustom bool) FeeQuote {
	gross := RoundMoney(grossAmount)
	platformFee := RoundMoney(gross * platformPct)
	processingFee := RoundMoney(gross * processingPct)
	net := RoundMoney(gross - platformFee - processingFee)
	return FeeQuote{
		GrossAmount:             gross,
		PlatformFeePercentage:   platformPct,
		PlatformFeeAmount:       platformFee,
		ProcessingFeePercentage: processingPct,
		ProcessingFeeAmount:     processingFee,
		NetAmount:               net,
		IsCustomFee:             isCustom,
	}
}

func IsValidFeeOverride(pct float64) bool {
	return pct >= 0 && pct <= MaxPlatformFeeOverride
}

// RoundMoney rounds half-up to two decimals.
func RoundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

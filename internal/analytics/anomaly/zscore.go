package anomaly

// CalculateZScore calculates the signed Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// severityForZScore escalates at 1.5x and 2x the threshold (strict comparisons)
func severityForZScore(z, threshold float64) Severity {
	switch {
	case z > threshold*2:
		return SeverityHigh
	case z > threshold*1.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

package technical

import "math"

// SMA calculates the Simple Moving Average for the given period. The result
// has the same length as data; entries before index period-1 are NaN. It
// returns nil when data is shorter than period.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		if i < period-1 {
			result[i] = math.NaN()
		}
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}

	return result
}

// SMALatest returns the most recent SMA value, or NaN when data is shorter
// than period.
func SMALatest(data []float64, period int) float64 {
	vals := SMA(data, period)
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newFixedInsightsService(hour int) *InsightsService {
	s := NewInsightsService()
	s.now = func() time.Time {
		return time.Date(2025, 6, 4, hour, 0, 0, 0, time.UTC)
	}
	s.rnd = rand.New(rand.NewSource(1))
	return s
}

func insightTypes(insights []Insight) []string {
	out := make([]string, 0, len(insights))
	for _, i := range insights {
		out = append(out, i.Type)
	}
	return out
}

func TestEnergySpikeInsight(t *testing.T) {
	s := newFixedInsightsService(3)
	current := HotelMetrics{EnergyUsage: 1900, Occupancy: 90, Temperature: 22, CarbonIntensity: 300}

	insights := s.GenerateInsights(current, nil)
	require.Contains(t, insightTypes(insights), "alert")
}

func TestCalmMetricsProduceNoInsights(t *testing.T) {
	s := newFixedInsightsService(3)
	current := HotelMetrics{EnergyUsage: 1000, Occupancy: 90, Temperature: 22, CarbonIntensity: 300}

	require.Empty(t, s.GenerateInsights(current, nil))
}

func TestPeakDemandInsightOnlyDuringPeakHours(t *testing.T) {
	current := HotelMetrics{EnergyUsage: 1700, Occupancy: 90, Temperature: 22, CarbonIntensity: 300}

	peak := newFixedInsightsService(18)
	require.Contains(t, insightTypes(peak.GenerateInsights(current, nil)), "savings")

	offPeak := newFixedInsightsService(3)
	require.NotContains(t, insightTypes(offPeak.GenerateInsights(current, nil)), "savings")
}

func TestCarbonInsight(t *testing.T) {
	s := newFixedInsightsService(3)
	current := HotelMetrics{EnergyUsage: 1000, Occupancy: 90, Temperature: 22, CarbonIntensity: 400}

	insights := s.GenerateInsights(current, nil)
	require.Contains(t, insightTypes(insights), "sustainability")
}

func TestOptimizationsAlwaysIncludeHVAC(t *testing.T) {
	s := newFixedInsightsService(12)
	current := HotelMetrics{EnergyUsage: 1200, Occupancy: 90, Temperature: 22}

	opts := s.GenerateOptimizations(current)
	require.NotEmpty(t, opts)
	require.Equal(t, "hvac", opts[0].Category)
}

func TestMaintenanceOptimizationOffPeakOnly(t *testing.T) {
	current := HotelMetrics{EnergyUsage: 1200, Occupancy: 90, Temperature: 22}

	night := newFixedInsightsService(2)
	var categories []string
	for _, o := range night.GenerateOptimizations(current) {
		categories = append(categories, o.Category)
	}
	require.Contains(t, categories, "equipment")

	day := newFixedInsightsService(12)
	categories = nil
	for _, o := range day.GenerateOptimizations(current) {
		categories = append(categories, o.Category)
	}
	require.NotContains(t, categories, "equipment")
}

func TestPredictUsage(t *testing.T) {
	s := newFixedInsightsService(12)
	history := []HotelMetrics{{EnergyUsage: 1200, Occupancy: 75}}

	predictions := s.PredictUsage(history, 6)
	require.Len(t, predictions, 6)

	for i, p := range predictions {
		require.Greater(t, p.PredictedUsage, 0.0)
		require.GreaterOrEqual(t, p.PredictedOccupancy, 20.0)
		require.LessOrEqual(t, p.PredictedOccupancy, 100.0)
		require.Equal(t, p.Timestamp.Hour(), p.Factors.TimeOfDay)
		require.Equal(t, 1.0, p.Factors.SeasonalFactor)
		if i > 0 {
			require.True(t, p.Timestamp.After(predictions[i-1].Timestamp))
			require.Less(t, p.Confidence, predictions[i-1].Confidence)
		}
	}
	require.InDelta(t, 0.80, predictions[0].Confidence, 0.001)
	require.InDelta(t, 0.55, predictions[5].Confidence, 0.001)

	// first step from 12:00 lands in the lunch daypart: occupancy 75*0.8,
	// usage scaled the same way within the +-8% variance band
	require.InDelta(t, 60.0, predictions[0].PredictedOccupancy, 0.001)
	require.InDelta(t, 960.0, predictions[0].PredictedUsage, 960*0.081)
}

func TestPredictUsageEmptyHistory(t *testing.T) {
	s := newFixedInsightsService(12)
	require.Nil(t, s.PredictUsage(nil, 6))
}

func TestDetectAnomaliesNeedsBaseline(t *testing.T) {
	s := newFixedInsightsService(12)
	current := HotelMetrics{EnergyUsage: 5000}
	require.Nil(t, s.DetectAnomalies(current, make([]HotelMetrics, 9)))
}

func TestStatisticalAnomaly(t *testing.T) {
	s := newFixedInsightsService(12)

	// baseline around 1000 with small spread, different hour than now
	history := make([]HotelMetrics, 12)
	for i := range history {
		usage := 990.0
		if i%2 == 0 {
			usage = 1010.0
		}
		history[i] = HotelMetrics{
			EnergyUsage: usage,
			Timestamp:   time.Date(2025, 6, 4, 3, 0, 0, 0, time.UTC),
		}
	}

	current := HotelMetrics{EnergyUsage: 1500}
	anomalies := s.DetectAnomalies(current, history)
	require.NotEmpty(t, anomalies)
	require.Equal(t, "statistical_anomaly", anomalies[0].Type)
	require.Equal(t, "high", anomalies[0].Severity)
	require.Greater(t, anomalies[0].ZScore, 2.5)
}

func TestTemporalAnomaly(t *testing.T) {
	s := newFixedInsightsService(12)

	// flat baseline (std=0) in the current hour, so only the same-hour
	// comparison can fire
	history := make([]HotelMetrics, 12)
	for i := range history {
		history[i] = HotelMetrics{
			EnergyUsage: 1000,
			Timestamp:   time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC),
		}
	}

	current := HotelMetrics{EnergyUsage: 2000}
	anomalies := s.DetectAnomalies(current, history)
	require.NotEmpty(t, anomalies)
	require.Equal(t, "temporal_anomaly", anomalies[0].Type)
}

func TestNoAnomalyOnNormalUsage(t *testing.T) {
	s := newFixedInsightsService(12)
	history := make([]HotelMetrics, 12)
	for i := range history {
		usage := 990.0
		if i%2 == 0 {
			usage = 1010.0
		}
		history[i] = HotelMetrics{
			EnergyUsage: usage,
			Timestamp:   time.Date(2025, 6, 4, 3, 0, 0, 0, time.UTC),
		}
	}

	current := HotelMetrics{EnergyUsage: 1005}
	require.Empty(t, s.DetectAnomalies(current, history))
}

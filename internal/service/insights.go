package service

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

type Insight struct {
	Type             string  `json:"type"`
	Priority         string  `json:"priority"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Recommendation   string  `json:"recommendation"`
	PotentialSavings string  `json:"potential_savings"`
	Confidence       float64 `json:"confidence"`
}

type Optimization struct {
	Category        string  `json:"category"`
	Action          string  `json:"action"`
	TargetValue     float64 `json:"target_value"`
	Unit            string  `json:"unit"`
	ExpectedSavings float64 `json:"expected_savings"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

type Prediction struct {
	Timestamp          time.Time         `json:"timestamp"`
	PredictedUsage     float64           `json:"predicted_usage"`
	PredictedOccupancy float64           `json:"predicted_occupancy"`
	Confidence         float64           `json:"confidence"`
	Factors            PredictionFactors `json:"factors"`
}

type PredictionFactors struct {
	TimeOfDay       int     `json:"time_of_day"`
	OccupancyImpact float64 `json:"occupancy_impact"`
	SeasonalFactor  float64 `json:"seasonal_factor"`
}

type Anomaly struct {
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Description    string  `json:"description"`
	ExpectedRange  string  `json:"expected_range,omitempty"`
	ZScore         float64 `json:"z_score,omitempty"`
	Recommendation string  `json:"recommendation"`
}

// InsightsService derives alerts, optimizations, short-horizon usage
// predictions and anomaly flags from the simulated metrics stream.
type InsightsService struct {
	ModelAccuracy float64

	now func() time.Time
	rnd *rand.Rand
}

func NewInsightsService() *InsightsService {
	return &InsightsService{
		ModelAccuracy: 0.85,
		now:           time.Now,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateInsights applies the fixed threshold rules to the current
// snapshot.
func (s *InsightsService) GenerateInsights(current HotelMetrics, history []HotelMetrics) []Insight {
	insights := []Insight{}
	hour := s.now().Hour()

	if current.EnergyUsage > 1800 {
		insights = append(insights, Insight{
			Type:             "alert",
			Priority:         "critical",
			Title:            "Critical Energy Spike Detected",
			Description:      fmt.Sprintf("Energy usage at %.0f kWh is 40%% above normal baseline.", current.EnergyUsage),
			Recommendation:   "Immediately investigate HVAC Zone 3 and kitchen equipment for potential malfunctions.",
			PotentialSavings: "$75/hour",
			Confidence:       0.95,
		})
	}

	if (current.Temperature < 20 && current.Occupancy < 80) ||
		(current.Temperature > 26 && current.EnergyUsage > 1500) {
		setpointChange := 2
		if current.Temperature >= 20 {
			setpointChange = -2
		}
		insights = append(insights, Insight{
			Type:             "optimization",
			Priority:         "high",
			Title:            "HVAC Optimization Opportunity",
			Description:      "Weather conditions and occupancy levels suggest HVAC optimization opportunity.",
			Recommendation:   fmt.Sprintf("Adjust thermostat setpoint by %d°C in common areas and vacant rooms.", setpointChange),
			PotentialSavings: "$120/day",
			Confidence:       0.88,
		})
	}

	if current.Occupancy < 70 && hour >= 6 && hour <= 22 {
		insights = append(insights, Insight{
			Type:             "efficiency",
			Priority:         "medium",
			Title:            "Lighting Efficiency Improvement",
			Description:      fmt.Sprintf("Low occupancy (%.1f%%) detected during active hours.", current.Occupancy),
			Recommendation:   "Implement motion sensors in common areas and reduce lighting to 70% in low-traffic zones.",
			PotentialSavings: "$45/day",
			Confidence:       0.82,
		})
	}

	if hour >= 16 && hour <= 20 && current.EnergyUsage > 1600 {
		insights = append(insights, Insight{
			Type:             "savings",
			Priority:         "medium",
			Title:            "Peak Demand Management",
			Description:      "High energy usage detected during peak demand hours.",
			Recommendation:   "Initiate demand response protocol: pre-cool building and defer non-essential loads.",
			PotentialSavings: "$85",
			Confidence:       0.91,
		})
	}

	if current.CarbonIntensity > 350 {
		carbonImpact := current.EnergyUsage * current.CarbonIntensity / 1000
		insights = append(insights, Insight{
			Type:             "sustainability",
			Priority:         "low",
			Title:            "Carbon Footprint Reduction",
			Description:      fmt.Sprintf("High carbon intensity on grid (%.0f gCO2/kWh).", current.CarbonIntensity),
			Recommendation:   "Reduce energy consumption by 10% for next 2 hours to minimize environmental impact.",
			PotentialSavings: fmt.Sprintf("%.1f kg CO2", carbonImpact*0.1),
			Confidence:       0.86,
		})
	}

	return insights
}

func (s *InsightsService) GenerateOptimizations(current HotelMetrics) []Optimization {
	optimizations := []Optimization{}

	optimalTemp := 22.0
	if current.Occupancy < 60 {
		optimalTemp += 1.5
	}
	if current.Temperature > 25 {
		optimalTemp -= 1.0
	}
	optimizations = append(optimizations, Optimization{
		Category:        "hvac",
		Action:          "adjust_setpoint",
		TargetValue:     optimalTemp,
		Unit:            "°C",
		ExpectedSavings: 15,
		Confidence:      0.89,
		Reasoning:       "Optimal balance based on occupancy patterns and weather conditions.",
	})

	if current.Occupancy < 85 {
		lightLevel := math.Max(60, 100-(85-current.Occupancy))
		optimizations = append(optimizations, Optimization{
			Category:        "lighting",
			Action:          "adjust_brightness",
			TargetValue:     lightLevel,
			Unit:            "%",
			ExpectedSavings: 8,
			Confidence:      0.84,
			Reasoning:       fmt.Sprintf("Reduced foot traffic allows for %.0f%% lighting reduction.", 100-lightLevel),
		})
	}

	hour := s.now().Hour()
	if hour >= 23 || hour <= 5 {
		optimizations = append(optimizations, Optimization{
			Category:        "equipment",
			Action:          "schedule_maintenance",
			TargetValue:     3,
			Unit:            "systems",
			ExpectedSavings: 5,
			Confidence:      0.92,
			Reasoning:       "Off-peak hours ideal for equipment maintenance and optimization.",
		})
	}

	return optimizations
}

// PredictUsage extrapolates the last sample over the next hoursAhead
// hours using daypart occupancy factors. Confidence decays per hour.
func (s *InsightsService) PredictUsage(history []HotelMetrics, hoursAhead int) []Prediction {
	if len(history) == 0 {
		return nil
	}

	predictions := make([]Prediction, 0, hoursAhead)
	lastUsage := history[len(history)-1].EnergyUsage
	lastOccupancy := history[len(history)-1].Occupancy

	for hour := 1; hour <= hoursAhead; hour++ {
		futureTime := s.now().UTC().Add(time.Duration(hour) * time.Hour)
		futureHour := futureTime.Hour()

		var occupancyFactor float64
		switch {
		case futureHour >= 6 && futureHour <= 10:
			occupancyFactor = 1.2
		case futureHour >= 12 && futureHour <= 14:
			occupancyFactor = 0.8
		case futureHour >= 17 && futureHour <= 22:
			occupancyFactor = 1.4
		case futureHour >= 23 || futureHour <= 5:
			occupancyFactor = 0.3
		default:
			occupancyFactor = 1.0
		}

		predictedOccupancy := lastOccupancy * occupancyFactor
		predictedOccupancy = math.Max(20, math.Min(100, predictedOccupancy))

		basePrediction := lastUsage * (predictedOccupancy / math.Max(lastOccupancy, 1))
		if futureHour >= 16 && futureHour <= 20 {
			basePrediction *= 1.15
		} else if futureHour >= 1 && futureHour <= 6 {
			basePrediction *= 0.85
		}

		variance := -0.08 + s.rnd.Float64()*0.16
		predictedUsage := basePrediction * (1 + variance)

		predictions = append(predictions, Prediction{
			Timestamp:          futureTime,
			PredictedUsage:     round1(predictedUsage),
			PredictedOccupancy: round1(predictedOccupancy),
			Confidence:         math.Round((s.ModelAccuracy-float64(hour)*0.05)*100) / 100,
			Factors: PredictionFactors{
				TimeOfDay:       futureHour,
				OccupancyImpact: math.Round((predictedOccupancy-75)*0.02*1000) / 1000,
				SeasonalFactor:  1.0,
			},
		})

		lastUsage = predictedUsage
		lastOccupancy = predictedOccupancy
	}

	return predictions
}

// DetectAnomalies flags statistical and same-hour deviations. Needs at
// least ten historical samples to have a baseline.
func (s *InsightsService) DetectAnomalies(current HotelMetrics, history []HotelMetrics) []Anomaly {
	if len(history) < 10 {
		return nil
	}

	anomalies := []Anomaly{}
	recent := history
	if len(recent) > 24 {
		recent = recent[len(recent)-24:]
	}

	mean, std := meanStd(recent)
	zScore := 0.0
	if std > 0 {
		zScore = math.Abs(current.EnergyUsage-mean) / std
	}

	if zScore > 2.5 {
		severity := "medium"
		if zScore > 3 {
			severity = "high"
		}
		anomalies = append(anomalies, Anomaly{
			Type:     "statistical_anomaly",
			Severity: severity,
			Description: fmt.Sprintf("Energy usage %.0f kWh is %.1f standard deviations from normal",
				current.EnergyUsage, zScore),
			ExpectedRange:  fmt.Sprintf("%.0f - %.0f kWh", mean-2*std, mean+2*std),
			ZScore:         math.Round(zScore*100) / 100,
			Recommendation: "Investigate equipment status and occupancy patterns",
		})
	}

	currentHour := s.now().Hour()
	var sameHour []HotelMetrics
	for _, m := range recent {
		if m.Timestamp.Hour() == currentHour {
			sameHour = append(sameHour, m)
		}
	}
	if len(sameHour) >= 3 {
		sameHourMean, _ := meanStd(sameHour)
		if math.Abs(current.EnergyUsage-sameHourMean) > sameHourMean*0.3 {
			anomalies = append(anomalies, Anomaly{
				Type:           "temporal_anomaly",
				Severity:       "medium",
				Description:    fmt.Sprintf("Usage unusual for this time of day (hour %d)", currentHour),
				Recommendation: "Check for schedule changes or equipment issues",
			})
		}
	}

	return anomalies
}

func meanStd(metrics []HotelMetrics) (mean, std float64) {
	if len(metrics) == 0 {
		return 0, 0
	}
	for _, m := range metrics {
		mean += m.EnergyUsage
	}
	mean /= float64(len(metrics))

	var variance float64
	for _, m := range metrics {
		variance += (m.EnergyUsage - mean) * (m.EnergyUsage - mean)
	}
	variance /= float64(len(metrics))
	return mean, math.Sqrt(variance)
}

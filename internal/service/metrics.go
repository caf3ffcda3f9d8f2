package service

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

type Weather struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Condition   string  `json:"weather_condition"`
	WindSpeed   float64 `json:"wind_speed"`
}

type GridStatus struct {
	CarbonIntensity float64 `json:"carbon_intensity"`
	EnergyPrice     float64 `json:"energy_price"`
	GridDemand      float64 `json:"grid_demand"`
}

type HotelMetrics struct {
	EnergyUsage      float64   `json:"energy_usage"`
	Occupancy        float64   `json:"occupancy"`
	Temperature      float64   `json:"temperature"`
	Humidity         float64   `json:"humidity"`
	CarbonIntensity  float64   `json:"carbon_intensity"`
	EnergyPrice      float64   `json:"energy_price"`
	PotentialSavings float64   `json:"potential_savings"`
	Integrations     int       `json:"integrations"`
	Timestamp        time.Time `json:"timestamp"`
}

// MetricsService simulates building telemetry the way the sensors would
// report it: baseline load shaped by weather, occupancy and time of day.
type MetricsService struct {
	BaseEnergyUsage float64
	BaseOccupancy   float64

	now func() time.Time
	rnd *rand.Rand

	mu      sync.Mutex
	history []HotelMetrics
}

const historyLimit = 168 // one week of hourly samples

func NewMetricsService() *MetricsService {
	return &MetricsService{
		BaseEnergyUsage: 1200,
		BaseOccupancy:   75,
		now:             time.Now,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *MetricsService) ExternalWeather() Weather {
	conditions := []string{"sunny", "cloudy", "rainy"}
	return Weather{
		Temperature: s.uniform(18, 28),
		Humidity:    s.uniform(40, 80),
		Condition:   conditions[s.rnd.Intn(len(conditions))],
		WindSpeed:   s.uniform(5, 25),
	}
}

func (s *MetricsService) GridStatus() GridStatus {
	return GridStatus{
		CarbonIntensity: s.uniform(200, 450),
		EnergyPrice:     s.uniform(0.12, 0.35),
		GridDemand:      s.uniform(0.7, 1.0),
	}
}

// Generate produces the current snapshot and appends it to the rolling
// history used by insights and anomaly detection.
func (s *MetricsService) Generate() HotelMetrics {
	weather := s.ExternalWeather()
	grid := s.GridStatus()
	now := s.now()

	hour := now.Hour()
	isPeakHour := hour >= 16 && hour <= 22
	isBusinessDay := now.Weekday() >= time.Monday && now.Weekday() <= time.Friday

	// 22C is the optimal setpoint; every degree off drives HVAC load.
	tempDeviation := math.Abs(weather.Temperature - 22)
	tempFactor := 1 + tempDeviation*0.03

	occupancy := s.BaseOccupancy
	if isPeakHour {
		occupancy *= 1.2
	}
	if isBusinessDay {
		occupancy *= 1.1
	}
	occupancy = math.Min(100, occupancy+s.uniform(-10, 15))

	energyUsage := s.BaseEnergyUsage * tempFactor * (occupancy / 100)
	energyUsage += s.uniform(-50, 100)

	potentialSavings := energyUsage * 0.15 * (grid.EnergyPrice / 0.20)

	m := HotelMetrics{
		EnergyUsage:      round1(energyUsage),
		Occupancy:        round1(occupancy),
		Temperature:      round1(weather.Temperature),
		Humidity:         round1(weather.Humidity),
		CarbonIntensity:  round1(grid.CarbonIntensity),
		EnergyPrice:      math.Round(grid.EnergyPrice*1000) / 1000,
		PotentialSavings: math.Round(potentialSavings),
		Integrations:     5,
		Timestamp:        now.UTC(),
	}

	s.mu.Lock()
	s.history = append(s.history, m)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
	s.mu.Unlock()

	return m
}

func (s *MetricsService) History() []HotelMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HotelMetrics, len(s.history))
	copy(out, s.history)
	return out
}

// EfficiencyScore rates recent usage per occupancy point against a
// 15 kWh/% benchmark, clamped to 50..99.
func (s *MetricsService) EfficiencyScore(history []HotelMetrics) int {
	if len(history) < 5 {
		return 78
	}

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	var sum float64
	for _, m := range recent {
		sum += m.EnergyUsage / math.Max(m.Occupancy, 1)
	}
	avgUsagePerOccupancy := sum / float64(len(recent))

	const benchmark = 15.0
	efficiencyRatio := benchmark / avgUsagePerOccupancy

	score := int(efficiencyRatio * 75)
	if score > 99 {
		score = 99
	}
	if score < 50 {
		score = 50
	}
	return score
}

func (s *MetricsService) uniform(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

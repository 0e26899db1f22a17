package mapview

import (
	"math"

	"github.com/Lameir47/MapaAD/models"
)

// RunningStats holds running mean and variance using Welford's online algorithm.
// Reference: https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm
type RunningStats struct {
	Count int
	Mean  float64
	M2    float64
}

// Update adds one observation
func (s *RunningStats) Update(v float64) {
	s.Count++
	delta := v - s.Mean
	s.Mean += delta / float64(s.Count)
	delta2 := v - s.Mean
	s.M2 += delta * delta2
}

// StdDev returns the population standard deviation, 0 with fewer than 2 observations
func (s *RunningStats) StdDev() float64 {
	if s.Count < 2 {
		return 0
	}
	return math.Sqrt(s.M2 / float64(s.Count))
}

// Summary describes a working set
type Summary struct {
	Count       int            `json:"count"`
	Highlighted int            `json:"highlighted"`
	Served      int            `json:"served"`
	Hubs        int            `json:"hubs"`
	ADOMean     float64        `json:"adoMean"`
	ADOStdDev   float64        `json:"adoStdDev"`
	Bands       map[string]int `json:"bands"`
}

// Summarize counts rows per class and computes ADO statistics
func Summarize(rows []models.WorkingRow) Summary {
	sum := Summary{Bands: make(map[string]int)}
	var stats RunningStats

	for _, r := range rows {
		sum.Count++
		if r.Highlighted {
			sum.Highlighted++
		}
		if r.Served {
			sum.Served++
		}
		if r.Hub {
			sum.Hubs++
		}
		sum.Bands[Classify(r).Key]++
		if !math.IsNaN(r.ADO) {
			stats.Update(r.ADO)
		}
	}

	sum.ADOMean = stats.Mean
	sum.ADOStdDev = stats.StdDev()
	return sum
}

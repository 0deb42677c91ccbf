package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Statistic is the aggregation applied to a metric over one period.
type Statistic string

const (
	StatisticSum         Statistic = "Sum"
	StatisticAverage     Statistic = "Average"
	StatisticMaximum     Statistic = "Maximum"
	StatisticMinimum     Statistic = "Minimum"
	StatisticSampleCount Statistic = "SampleCount"
)

func (s Statistic) Valid() bool {
	switch s {
	case StatisticSum, StatisticAverage, StatisticMaximum, StatisticMinimum, StatisticSampleCount:
		return true
	}
	return false
}

type Dimension struct {
	Name  string `json:"Name" yaml:"Name"`
	Value string `json:"Value" yaml:"Value"`
}

// MetricQuery selects an aggregated metric series ending at End.
type MetricQuery struct {
	Region     string
	Namespace  string
	Name       string
	Dimensions []Dimension
	Start      time.Time
	End        time.Time
	Period     time.Duration
	Statistic  Statistic
}

type MetricSample struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
	Statistic Statistic       `json:"statistic"`
}

// SortSamples orders samples by timestamp in place.
func SortSamples(samples []MetricSample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}

// SumSamples adds every sample value.
func SumSamples(samples []MetricSample) decimal.Decimal {
	total := decimal.Zero
	for _, s := range samples {
		total = total.Add(s.Value)
	}
	return total
}

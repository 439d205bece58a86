// Package metrics defines the per-entity counters collected every tick and
// the time series they are sampled into.
package metrics

import "strconv"

// Metric is implemented by every metric struct. Values and Columns line up.
type Metric[M any] interface {
	Add(other M) M
	NormalizeBy(n float64) M
	Columns() []string
	Values() []float64
}

// csvRow formats metric values for a CSV writer.
func csvRow(vals []float64) []string {
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return row
}

// PodMetrics are collected for each pod.
type PodMetrics struct {
	Utilization    float64 `json:"utilization"` // people aboard / capacity, sampled per tick
	TimeInStation  float64 `json:"time_in_station"`
	TimeInQueue    float64 `json:"time_in_queue"`
	TimeDriving    float64 `json:"time_driving"`
	MetersTraveled float64 `json:"meters_traveled"`
}

func (m PodMetrics) Add(o PodMetrics) PodMetrics {
	return PodMetrics{
		Utilization:    m.Utilization + o.Utilization,
		TimeInStation:  m.TimeInStation + o.TimeInStation,
		TimeInQueue:    m.TimeInQueue + o.TimeInQueue,
		TimeDriving:    m.TimeDriving + o.TimeDriving,
		MetersTraveled: m.MetersTraveled + o.MetersTraveled,
	}
}

func (m PodMetrics) NormalizeBy(n float64) PodMetrics {
	return PodMetrics{
		Utilization:    m.Utilization / n,
		TimeInStation:  m.TimeInStation / n,
		TimeInQueue:    m.TimeInQueue / n,
		TimeDriving:    m.TimeDriving / n,
		MetersTraveled: m.MetersTraveled / n,
	}
}

func (PodMetrics) Columns() []string {
	return []string{"utilization", "time_in_station", "time_in_queue", "time_driving", "meters_traveled"}
}

func (m PodMetrics) Values() []float64 {
	return []float64{m.Utilization, m.TimeInStation, m.TimeInQueue, m.TimeDriving, m.MetersTraveled}
}

// StationMetrics are collected for each station.
type StationMetrics struct {
	PodsVisited         float64 `json:"pods_visited"`
	TimePeopleInStation float64 `json:"time_people_in_station"`
	TimePeopleInPods    float64 `json:"time_people_in_pods"`
	MetersTraveled      float64 `json:"meters_traveled"`
}

func (m StationMetrics) Add(o StationMetrics) StationMetrics {
	return StationMetrics{
		PodsVisited:         m.PodsVisited + o.PodsVisited,
		TimePeopleInStation: m.TimePeopleInStation + o.TimePeopleInStation,
		TimePeopleInPods:    m.TimePeopleInPods + o.TimePeopleInPods,
		MetersTraveled:      m.MetersTraveled + o.MetersTraveled,
	}
}

func (m StationMetrics) NormalizeBy(n float64) StationMetrics {
	return StationMetrics{
		PodsVisited:         m.PodsVisited / n,
		TimePeopleInStation: m.TimePeopleInStation / n,
		TimePeopleInPods:    m.TimePeopleInPods / n,
		MetersTraveled:      m.MetersTraveled / n,
	}
}

func (StationMetrics) Columns() []string {
	return []string{"pods_visited", "time_people_in_station", "time_people_in_pods", "meters_traveled"}
}

func (m StationMetrics) Values() []float64 {
	return []float64{m.PodsVisited, m.TimePeopleInStation, m.TimePeopleInPods, m.MetersTraveled}
}

// PersonMetrics are collected for each person.
type PersonMetrics struct {
	PodsRidden     float64 `json:"pods_ridden"`
	TimeInStation  float64 `json:"time_in_station"`
	TimeInPods     float64 `json:"time_in_pods"`
	MetersTraveled float64 `json:"meters_traveled"`
}

func (m PersonMetrics) Add(o PersonMetrics) PersonMetrics {
	return PersonMetrics{
		PodsRidden:     m.PodsRidden + o.PodsRidden,
		TimeInStation:  m.TimeInStation + o.TimeInStation,
		TimeInPods:     m.TimeInPods + o.TimeInPods,
		MetersTraveled: m.MetersTraveled + o.MetersTraveled,
	}
}

func (m PersonMetrics) NormalizeBy(n float64) PersonMetrics {
	return PersonMetrics{
		PodsRidden:     m.PodsRidden / n,
		TimeInStation:  m.TimeInStation / n,
		TimeInPods:     m.TimeInPods / n,
		MetersTraveled: m.MetersTraveled / n,
	}
}

func (PersonMetrics) Columns() []string {
	return []string{"pods_ridden", "time_in_station", "time_in_pods", "meters_traveled"}
}

func (m PersonMetrics) Values() []float64 {
	return []float64{m.PodsRidden, m.TimeInStation, m.TimeInPods, m.MetersTraveled}
}

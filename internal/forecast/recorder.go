package forecast

import "budgetcast/internal/core"

// Point is one balance sample.
type Point struct {
	Date    core.Date
	Balance core.Money
}

// Series is an ordered run of samples for one account, or for the total.
type Series struct {
	Name   string
	Type   core.AccountType
	Points []Point
}

// Recorder accumulates balance samples. It does no arithmetic of its own.
type Recorder struct {
	order []*Series
	index map[string]*Series
	total Series
}

func NewRecorder() *Recorder {
	return &Recorder{
		index: make(map[string]*Series),
		total: Series{Name: TotalSeriesName},
	}
}

// TotalSeriesName names the aggregate series.
const TotalSeriesName = "total"

// Record appends a sample to the named account series, creating it on first use.
func (r *Recorder) Record(name string, typ core.AccountType, p Point) {
	s, ok := r.index[name]
	if !ok {
		s = &Series{Name: name, Type: typ}
		r.index[name] = s
		r.order = append(r.order, s)
	}
	s.Points = append(s.Points, p)
}

// RecordTotal appends a sample to the aggregate series.
func (r *Recorder) RecordTotal(p Point) {
	r.total.Points = append(r.total.Points, p)
}

// Accounts returns a copy of every account series in first-recorded order.
func (r *Recorder) Accounts() []Series {
	out := make([]Series, len(r.order))
	for i, s := range r.order {
		out[i] = Series{Name: s.Name, Type: s.Type, Points: append([]Point(nil), s.Points...)}
	}
	return out
}

// Total returns a copy of the aggregate series.
func (r *Recorder) Total() Series {
	return Series{Name: r.total.Name, Points: append([]Point(nil), r.total.Points...)}
}

package record

// Loss is the expected-points loss under one WDL model.
type Loss struct {
	Model string
	Value float64
}

// Metrics holds the quality measures derived from one Analysis, plus the
// fields needed to group it.
type Metrics struct {
	Player string
	ID     string
	Color  string
	Elo    int
	Ply    int
	CE     int
	CE2    int

	CPL    int
	IsBest bool
	Score  float64

	// ExpectedLoss is ordered as the models were given.
	ExpectedLoss []Loss
}

// Loss returns the expected loss under the named model.
func (m Metrics) Loss(model string) (float64, bool) {
	for _, l := range m.ExpectedLoss {
		if l.Model == model {
			return l.Value, true
		}
	}
	return 0, false
}

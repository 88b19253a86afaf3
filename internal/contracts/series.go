package contracts

import "time"

// Bar is one daily bar of the continuous series. Only the close is
// needed for signal computation.
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds the ordered daily bars for one instrument.
// Bars must be strictly increasing by date with no duplicates; the
// engine only reads the series, it never mutates it.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// LatestClose returns the most recent close. ok is false for an empty
// series.
func (s *PriceSeries) LatestClose() (close float64, ok bool) {
	if len(s.Bars) == 0 {
		return 0, false
	}
	return s.Bars[len(s.Bars)-1].Close, true
}

// Validate checks the series ordering invariant: strictly increasing
// dates, no duplicates. Close validation is the signal calculator's
// concern.
func (s *PriceSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return &InvalidPriceError{
				Symbol: s.Symbol,
				Date:   s.Bars[i].Date,
				Close:  s.Bars[i].Close,
				Reason: "bars not strictly increasing by date",
			}
		}
	}
	return nil
}

package contracts

// Instrument identifies one futures market in the trading universe.
// Signals are computed on the continuous series for the symbol; orders
// are placed on the resolved front-month contract.
type Instrument struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Exchange string `json:"exchange" yaml:"exchange"`
	Currency string `json:"currency" yaml:"currency"`
	Category string `json:"category" yaml:"category"`
}

// FindInstrument returns the instrument with the given symbol.
func FindInstrument(universe []Instrument, symbol string) (Instrument, bool) {
	for _, inst := range universe {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return Instrument{}, false
}

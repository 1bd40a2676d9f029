package entity

// Plan is a purchasable tier. The model is pinned to the plan so a session can never
// call a model other than the one it paid for.
type Plan struct {
	Id           string
	Name         string
	ModelName    string
	DisplayModel string
	// Price per purchased duration, keyed by hours.
	Prices map[int]float64
	// Default budget written to session_config by the seeder.
	DefaultTokenLimit int64
}

func (p Plan) PriceFor(hours int) (float64, bool) {
	price, ok := p.Prices[hours]
	return price, ok
}

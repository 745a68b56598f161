package domain

// Item is one ledger row: current stock plus cumulative inbound and
// outbound counters. Mutated only by the inventory ledger.
type Item struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Entry    int    `json:"entry"`
	Exit     int    `json:"exit"`
}

// Rack is a bounded storage bin. The allocator fills and drains racks
// in slice order, so position defines priority.
type Rack struct {
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	MaxCapacity int    `json:"max_capacity"`
}

// Space is the number of boxes the rack can still take.
func (r Rack) Space() int { return r.MaxCapacity - r.Capacity }

// DefaultItems returns the seed catalog.
func DefaultItems() []Item {
	return []Item{
		{Code: "001", Name: "Table", Quantity: 500},
		{Code: "002", Name: "Chair", Quantity: 500},
		{Code: "003", Name: "Cupboard", Quantity: 500},
	}
}

// DefaultRacks returns the seed rack sequence. Total capacity matches
// the total quantity of DefaultItems so the two aggregates start
// reconciled.
func DefaultRacks() []Rack {
	return []Rack{
		{Name: "Rack A", Capacity: 1000, MaxCapacity: 1000},
		{Name: "Rack B", Capacity: 500, MaxCapacity: 1000},
		{Name: "Rack C", Capacity: 0, MaxCapacity: 1000},
		{Name: "Rack D", Capacity: 0, MaxCapacity: 1000},
		{Name: "Rack E", Capacity: 0, MaxCapacity: 1000},
	}
}

package domain

// PriceRange is the inclusive [Min, Max] price per seat across a group's legs.
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// RouteGroup collects the legs of one bus run to one destination. Each leg is
// an alternative boarding point; a rider picks exactly one.
type RouteGroup struct {
	BusID          string     `json:"bus_id"`
	Destination    string     `json:"destination"`
	Representative RouteLeg   `json:"representative"`
	Legs           []RouteLeg `json:"legs"`
	PriceRange     PriceRange `json:"price_range"`
	Stops          []string   `json:"stops"`
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"busbooking/internal/domain"
)

// RouteCatalogStore is the durable home of the timetable.
type RouteCatalogStore interface {
	// LoadLegs returns every scheduled leg in catalog order.
	LoadLegs(ctx context.Context) ([]domain.RouteLeg, error)

	// SaveLegs replaces the stored catalog with legs.
	SaveLegs(ctx context.Context, legs []domain.RouteLeg) error
}

var legNamespace = uuid.MustParse("5b0a0c3e-4f7e-4d61-9a57-8c8f1f2e9b10")

// AssignLegIDs gives every leg without an id a stable one derived from its
// schedule, so the same file yields the same ids on every load.
func AssignLegIDs(legs []domain.RouteLeg) {
	used := make(map[string]int, len(legs))
	for _, leg := range legs {
		if leg.ID != "" {
			used[leg.ID]++
		}
	}
	for i := range legs {
		if legs[i].ID != "" {
			continue
		}
		key := strings.ToLower(fmt.Sprintf("%s|%s|%s|%d",
			legs[i].BusID, legs[i].Origin, legs[i].Destination, int(legs[i].DepartureTime)))
		id := uuid.NewSHA1(legNamespace, []byte(key)).String()
		for n := 1; used[id] > 0; n++ {
			id = uuid.NewSHA1(legNamespace, []byte(fmt.Sprintf("%s#%d", key, n))).String()
		}
		used[id]++
		legs[i].ID = id
	}
}

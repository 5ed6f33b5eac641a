package runtime

import (
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/aretw0/coldchain/pkg/ports"
)

// aggregate recomputes the item count of every station from item states.
// Completed items are not counted under any station.
func aggregate(store ports.TrackingStore) {
	counts := make(map[string]int)
	store.EachItem(func(it *domain.Item) {
		if !it.Completed() {
			counts[it.State]++
		}
	})
	for _, st := range store.Stations() {
		st.ItemCount = counts[st.ID]
	}
}

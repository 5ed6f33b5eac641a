package coldchain_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/coldchain"
	"github.com/aretw0/coldchain/internal/config"
	"github.com/aretw0/coldchain/pkg/domain"
)

func Example() {
	tracker, err := coldchain.New(config.Default())
	if err != nil {
		panic(err)
	}
	defer tracker.Close()

	ctx := context.Background()
	sub := tracker.Subscribe()
	defer sub.Close()

	_ = tracker.Ingest(ctx, domain.Movement{ItemID: "LOT-1", Station: "producao"})
	_ = tracker.Ingest(ctx, domain.Movement{ItemID: "LOT-1", Station: "expedicao"})

	for i := 0; i < 4; i++ {
		var env struct {
			Type domain.MessageType `json:"type"`
		}
		_ = json.Unmarshal(<-sub.Messages(), &env)
		fmt.Println(env.Type)
	}

	item, _ := tracker.Item("LOT-1")
	fmt.Println(item.State, len(item.Alerts))
	// Output:
	// snapshot
	// movement
	// movement
	// alert
	// producao 1
}

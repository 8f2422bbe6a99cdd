package public

import (
	"testing"

	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/service"
)

func TestChannelsForActor(t *testing.T) {
	cases := []struct {
		name  string
		actor service.Actor
		want  []events.Recipient
	}{
		{name: "admin", actor: service.AdminActor(2), want: []events.Recipient{events.AllAdmins, events.AdminRecipient(2)}},
		{name: "shipper", actor: service.ShipperActor(7), want: []events.Recipient{events.ShipperRecipient(7)}},
		{name: "carrier", actor: service.CarrierActor(5), want: []events.Recipient{events.CarrierRecipient(5), events.AllCarriers}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ChannelsForActor(tc.actor)
			if len(got) != len(tc.want) {
				t.Fatalf("channels want %v got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("channel %d want %v got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

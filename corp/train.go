package corp

import "fmt"

// TrainType is one rank of train in the schedule.
type TrainType struct {
	Name string
	Rank int
	Cost int
	// Count is the number of trains of this rank printed; -1 is unlimited.
	Count int
	// RustsOn names the rank whose first purchase scraps this one.
	RustsOn string
	// TriggersPhase names the phase entered when the first train of this
	// rank is bought.
	TriggersPhase string
}

// Train is a physical train certificate.
type Train struct {
	ID     string
	Type   *TrainType
	Holder *Portfolio
}

func (t *Train) String() string {
	return fmt.Sprintf("%s-train %s", t.Type.Name, t.ID)
}

// BuildTrains mints the supply for a type into the IPO.
func BuildTrains(bank *Bank, types []*TrainType) map[string]*Train {
	trains := map[string]*Train{}
	for _, tt := range types {
		n := tt.Count
		if n < 0 {
			// "unlimited" ranks: one per possible owning company is enough
			n = 8
		}
		for i := 0; i < n; i++ {
			tr := &Train{ID: fmt.Sprintf("%s-%d", tt.Name, i+1), Type: tt}
			bank.IPO.addTrain(tr)
			trains[tr.ID] = tr
		}
	}
	return trains
}

package scheduler

import "fmt"

// roundRobin walks the party list in windows of perRound, wrapping around.
type roundRobin struct {
	perRound int
}

func NewRoundRobin(perRound int) (Scheduler, error) {
	if perRound <= 0 {
		return nil, fmt.Errorf("%w: %d parties per round", ErrInvalidSchedule, perRound)
	}

	return &roundRobin{perRound: perRound}, nil
}

func (r *roundRobin) Select(round int, parties []string) ([]string, error) {
	if len(parties) == 0 {
		return nil, ErrNoParty
	}
	if r.perRound >= len(parties) {
		return append([]string(nil), parties...), nil
	}

	start := (round * r.perRound) % len(parties)
	picked := make([]bool, len(parties))
	for i := range r.perRound {
		picked[(start+i)%len(parties)] = true
	}

	selected := make([]string, 0, r.perRound)
	for i, p := range parties {
		if picked[i] {
			selected = append(selected, p)
		}
	}

	return selected, nil
}

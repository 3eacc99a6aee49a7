package game

// EvaluatePockets checks every body against every pocket.
//
// An object body inside a pocket is marked for removal (it is pruned at the
// end of the step) and a capture event is emitted once for it. The primary
// body inside a pocket resets the scene and ends the pass: the bodies that
// were still to be checked have just been replaced by a fresh formation.
func (s *Simulation) EvaluatePockets() []Event {
	var events []Event

	for i := range s.Bodies {
		b := &s.Bodies[i]
		if b.MarkedForRemoval {
			continue
		}
		for _, p := range s.Scenario.Pockets {
			if !p.Contains(b) {
				continue
			}
			if b.IsPrimary() {
				id := b.ID
				s.ResetScene()
				return append(events, Event{Type: EventSceneReset, BodyID: id, TargetID: p.ID})
			}
			b.MarkedForRemoval = true
			events = append(events, Event{
				Type:     EventCapture,
				BodyID:   b.ID,
				TargetID: p.ID,
				Speed:    b.Speed(),
			})
			break
		}
	}

	return events
}

// Prune drops every body marked for removal, keeping the order of the rest.
// Returns the number of bodies removed.
func (s *Simulation) Prune() int {
	kept := s.Bodies[:0]
	for _, b := range s.Bodies {
		if !b.MarkedForRemoval {
			kept = append(kept, b)
		}
	}
	removed := len(s.Bodies) - len(kept)
	s.Bodies = kept
	return removed
}

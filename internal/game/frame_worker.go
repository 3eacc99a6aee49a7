package game

import (
	"context"
	"log"
	"time"
)

// FrameSink receives the output of the frame loop. Delivery is fire-and-forget:
// implementations must not block the loop.
type FrameSink interface {
	SendFrame(fr *FrameResult)
	// SendEvents delivers capture and reset events when no Redis fan-out is configured.
	SendEvents(token string, frame uint64, events []Event)
	SendExpired(token string)
}

// StartFrameWorker steps every active session at the configured frame rate until ctx is done.
func StartFrameWorker(ctx context.Context, sm *SessionManager, sink FrameSink) {
	if sm == nil {
		log.Println("[FRAME] Session manager missing; frame worker not started")
		return
	}

	rate := sm.GetConfig().FrameRate
	if rate <= 0 {
		rate = 60
	}
	interval := time.Second / time.Duration(rate)
	dt := 1.0 / float64(rate)

	log.Printf("[FRAME] Frame worker started (%d fps)", rate)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[FRAME] Frame worker stopping")
				return
			case <-ticker.C:
				sm.Tick(dt, sink)
			}
		}
	}()
}

// Tick advances every active session by dt and forwards what happened.
func (sm *SessionManager) Tick(dt float64, sink FrameSink) {
	snapshotEvery := uint64(sm.GetConfig().SnapshotEveryFrames)

	for _, s := range sm.ActiveSessions() {
		fr, err := s.Advance(dt)
		if err != nil {
			if err != ErrSessionEnded {
				log.Printf("[FRAME] Session %s step failed: %v", s.Token, err)
			}
			continue
		}

		send := s.NeedsBroadcast(fr)
		if send && sink != nil {
			sink.SendFrame(fr)
		}

		notable := notableEvents(fr.Events)
		if len(notable) > 0 {
			for _, e := range notable {
				log.Printf("[FRAME] Session %s frame %d: %s body=%d target=%d", s.Token, fr.Frame, e.Type, e.BodyID, e.TargetID)
			}
			go sm.RecordEvents(s, fr.Frame, notable)
			if !sm.PublishEvents(s.Token, fr.Frame, notable) && sink != nil {
				sink.SendEvents(s.Token, fr.Frame, notable)
			}
		}

		if send && (fr.AtRest || (snapshotEvery > 0 && fr.Frame%snapshotEvery == 0)) {
			if err := sm.saveSessionToRedis(s); err != nil {
				log.Printf("[FRAME] Snapshot of session %s failed: %v", s.Token, err)
			}
		}
	}
}

// notableEvents filters out collisions, which are too frequent to persist or fan out.
func notableEvents(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.Type != EventCollision {
			out = append(out, e)
		}
	}
	return out
}

package game

import (
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// A DB handle that is never reachable. sqlx.Open does not dial, and sessions
// without a DB id return before any query is issued.
func unreachableDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("sqlx.Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordersReadDBIDUnderLock(t *testing.T) {
	sm := NewSessionManager(unreachableDB(t), nil, testConfig())
	s := newTestSession(0)
	events := []Event{{Type: EventCapture, BodyID: 3, TargetID: 1}}
	dir := NewVec2(1, 0)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.mu.Lock()
			s.DBID = 0
			s.mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			sm.RecordEvents(s, uint64(i), events)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			sm.RecordShot(s, ShotParams{Direction: &dir, Magnitude: 100}, dir.Times(100))
		}
	}()
	wg.Wait()

	if s.Snapshot().DBID != 0 {
		t.Errorf("DBID changed unexpectedly: %d", s.Snapshot().DBID)
	}
}

func TestRecordersWithoutDatabase(t *testing.T) {
	sm := NewSessionManager(nil, nil, testConfig())
	s := newTestSession(0)
	s.DBID = 42

	// Must return without touching a DB.
	sm.RecordEvents(s, 1, []Event{{Type: EventSceneReset}})
	sm.RecordShot(s, ShotParams{}, Vec2{})
	sm.SaveFinalSession(s)
}

// Package storagetest provides an in-memory storage.Driver/Tx double for
// exercising internal/processor, internal/rating and internal/ingestbox
// without a real PocketBase instance. It is only ever imported from
// _test.go files.
package storagetest

import (
	"fmt"
	"time"

	"rankforge/internal/models"
	"rankforge/internal/storage"
)

// Event is one row Fake.InsertEvent recorded.
type Event struct {
	GameID       string
	RoundStartID string
	Type         models.EventType
	Timestamp    time.Time
	Data         map[string]any
}

// Fake implements storage.Driver and storage.Tx over plain Go slices/maps;
// RunInTransaction never rolls back, since nothing here can fail.
type Fake struct {
	Games       []*models.Game
	RoundStarts []*models.RoundStart
	Events      []Event
	Accolades   []*models.Accolade
	Players     map[string]*models.PlayerStats

	nextID int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Players: make(map[string]*models.PlayerStats)}
}

var _ storage.Driver = (*Fake)(nil)
var _ storage.Tx = (*Fake)(nil)

func (f *Fake) genID() string {
	f.nextID++
	return fmt.Sprintf("fake%d", f.nextID)
}

func (f *Fake) FindGameEvent(eventType models.EventType, ts time.Time) (bool, error) {
	for _, e := range f.Events {
		if e.Type == eventType && e.Timestamp.Equal(ts) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) RunInTransaction(fn func(tx storage.Tx) error) error {
	return fn(f)
}

func (f *Fake) InsertGame(g *models.Game) (string, error) {
	id := f.genID()
	g.ID = id
	cp := *g
	f.Games = append(f.Games, &cp)
	return id, nil
}

func (f *Fake) InsertRoundStart(rs *models.RoundStart) (string, error) {
	id := f.genID()
	rs.ID = id
	cp := *rs
	f.RoundStarts = append(f.RoundStarts, &cp)
	return id, nil
}

func (f *Fake) InsertEvent(gameID, roundStartID string, eventType models.EventType, ts time.Time, data map[string]any) (string, error) {
	id := f.genID()
	f.Events = append(f.Events, Event{
		GameID:       gameID,
		RoundStartID: roundStartID,
		Type:         eventType,
		Timestamp:    ts,
		Data:         data,
	})
	return id, nil
}

func (f *Fake) InsertAccolade(a *models.Accolade) (string, error) {
	id := f.genID()
	cp := *a
	cp.ID = id
	f.Accolades = append(f.Accolades, &cp)
	return id, nil
}

func (f *Fake) UpsertPlayerStats(steamID string, mutate func(*models.PlayerStats)) error {
	s, ok := f.Players[steamID]
	if !ok {
		s = &models.PlayerStats{SteamID: steamID}
		f.Players[steamID] = s
	}
	mutate(s)
	return nil
}

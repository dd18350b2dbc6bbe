package game

import (
	"time"

	"oilrush/internal/economy"
	"oilrush/internal/store"
)

// state is one attempt's snapshot of a profile plus the changes made to it.
type state struct {
	now      time.Time
	version  int64
	profile  economy.Profile
	wells    []economy.Well
	boosters []economy.Booster
	mut      store.Mutation
	dirty    bool
	newID    func() string
}

func (st *state) touch() {
	st.dirty = true
}

func (st *state) well(id string) (economy.Well, bool) {
	for _, w := range st.wells {
		if w.ID == id {
			return w, true
		}
	}
	return economy.Well{}, false
}

func (st *state) putWell(w economy.Well) {
	replaced := false
	for i := range st.wells {
		if st.wells[i].ID == w.ID {
			st.wells[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		st.wells = append(st.wells, w)
	}
	st.mut.UpsertWells = append(st.mut.UpsertWells, w)
	st.dirty = true
}

func (st *state) putBooster(b economy.Booster, deleted bool) {
	st.boosters = economy.ReplaceBooster(st.boosters, b, deleted)
	if deleted {
		st.mut.DeleteBoosters = append(st.mut.DeleteBoosters, b.ID)
	} else {
		st.mut.UpsertBoosters = append(st.mut.UpsertBoosters, b)
	}
	st.dirty = true
}

func (st *state) record(kind economy.TransactionKind, cur economy.Currency, amount int64, meta map[string]any) {
	st.mut.Transactions = append(st.mut.Transactions, economy.Transaction{
		ID:        st.newID(),
		ProfileID: st.profile.ID,
		Kind:      kind,
		Currency:  cur,
		Amount:    amount,
		Meta:      meta,
		CreatedAt: st.now,
	})
	st.dirty = true
}

package roster

import (
	"sort"

	"github.com/warp/overtime-engine/generic"
)

// Roster answers "what was this carrier's status on this date". Records are
// kept per carrier, ordered by effective date; a lookup is a binary search
// for the latest record effective on or before the date.
type Roster struct {
	byCarrier map[generic.CarrierID][]StatusRecord
}

// New builds a roster from a snapshot of status records. Carrier IDs are
// normalized. When two records share a carrier and effective date, the one
// supplied later wins so that every date resolves to exactly one status.
func New(records []StatusRecord) (*Roster, error) {
	r := &Roster{byCarrier: make(map[generic.CarrierID][]StatusRecord)}
	for _, rec := range records {
		rec, err := rec.Normalized()
		if err != nil {
			return nil, err
		}
		r.byCarrier[rec.CarrierID] = append(r.byCarrier[rec.CarrierID], rec)
	}

	for id, recs := range r.byCarrier {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].EffectiveDate.Before(recs[j].EffectiveDate)
		})
		deduped := recs[:0]
		for _, rec := range recs {
			if n := len(deduped); n > 0 && deduped[n-1].EffectiveDate.Equal(rec.EffectiveDate) {
				deduped[n-1] = rec
				continue
			}
			deduped = append(deduped, rec)
		}
		r.byCarrier[id] = deduped
	}
	return r, nil
}

// ResolveAt returns the status in effect for carrier on date.
func (r *Roster) ResolveAt(carrier generic.CarrierID, date generic.Date) (StatusRecord, bool) {
	recs := r.byCarrier[generic.NormalizeCarrierID(string(carrier))]
	// First record that takes effect after date; the one before it applies.
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].EffectiveDate.After(date)
	})
	if i == 0 {
		return StatusRecord{}, false
	}
	return recs[i-1], true
}

// History returns a copy of every version recorded for carrier.
func (r *Roster) History(carrier generic.CarrierID) []StatusRecord {
	recs := r.byCarrier[generic.NormalizeCarrierID(string(carrier))]
	return append([]StatusRecord(nil), recs...)
}

// Carriers returns all carrier IDs in sorted order.
func (r *Roster) Carriers() []generic.CarrierID {
	ids := make([]generic.CarrierID, 0, len(r.byCarrier))
	for id := range r.byCarrier {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of carriers on the roster.
func (r *Roster) Len() int { return len(r.byCarrier) }

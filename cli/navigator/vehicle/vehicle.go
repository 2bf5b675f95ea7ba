// Package vehicle maintains the fused location of a vehicle across its raw
// position sources and notifies subscribers about changes to it.
package vehicle

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mvglasow/navfix/libs/location"
)

// Field identifies a fused-location attribute that can be subscribed to.
type Field int

const (
	FieldValidity Field = iota
	FieldFixType
	FieldSats
	FieldSatsUsed
	FieldPosition
)

// String implements fmt.Stringer.
func (f Field) String() string {
	switch f {
	case FieldValidity:
		return "validity"
	case FieldFixType:
		return "fix_type"
	case FieldSats:
		return "sats"
	case FieldSatsUsed:
		return "sats_used"
	case FieldPosition:
		return "position"
	}
	return "unknown"
}

// notificationOrder maps the fuser's change bits to subscription fields, in
// the order in which notifications fire.
var notificationOrder = []struct {
	change location.ChangeSet
	field  Field
}{
	{location.ChangedFixType, FieldFixType},
	{location.ChangedSats, FieldSats},
	{location.ChangedSatsUsed, FieldSatsUsed},
	{location.ChangedPosition, FieldPosition},
}

// Callback receives a snapshot of the fused location after a change to the
// subscribed field.
type Callback func(location.Location)

// Vehicle owns one raw location slot per registered position source and the
// fused location derived from them. The fused location is mutated in place on
// every update; it is never replaced.
//
// All updates and reads are serialized internally, so sources may deliver
// fixes from separate goroutines. Notifications for a single update fire
// sequentially, at most once per field, in the fixed order validity, fix
// type, satellite count, satellites used, position; after a change to
// Invalid validity no further notification fires. Concurrent updates from
// multiple sources may interleave their notification sequences; hosts that
// need a strict global order must serialize their sources.
type Vehicle struct {
	mu    sync.Mutex
	name  string
	raw   []*location.Location
	fused *location.Location
	subs  map[Field][]Callback
}

// New creates a vehicle with no sources and an invalid fused location.
func New(name string) *Vehicle {
	return &Vehicle{
		name:  name,
		fused: location.New(),
		subs:  make(map[Field][]Callback),
	}
}

// Name returns the name of the vehicle.
func (v *Vehicle) Name() string { return v.name }

// AddSource registers a position source with the given trust level and
// returns the identifier of its raw location slot. The slot persists across
// updates; each new fix overwrites it in place.
func (v *Vehicle) AddSource(trust location.TrustLevel) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	l := location.New()
	l.SetTrust(trust)
	v.raw = append(v.raw, l)
	return len(v.raw) - 1
}

// Subscribe registers a callback for changes to the given fused-location
// field.
func (v *Vehicle) Subscribe(field Field, cb Callback) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subs[field] = append(v.subs[field], cb)
}

// Location returns a snapshot of the fused location.
func (v *Vehicle) Location() location.Location {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.fused
}

// UpdateSlot applies fn to the raw location slot identified by slot, then
// re-fuses all raw locations into the fused location and fires change
// notifications. Sources call this once per incoming fix.
func (v *Vehicle) UpdateSlot(slot int, fn func(*location.Location)) {
	v.mu.Lock()
	fn(v.raw[slot])
	changes := location.Fuse(v.raw, v.fused)
	snapshot := *v.fused
	v.mu.Unlock()

	v.notify(changes, snapshot)
}

// Extrapolate advances the fused location along the route for the time
// elapsed since its fix, firing validity and position notifications if the
// location was updated. It reports whether an update took place.
func (v *Vehicle) Extrapolate(route location.RouteCursor, profile location.VehicleProfile, speedHint float64) bool {
	v.mu.Lock()
	oldValidity := v.fused.Validity()
	oldPosition := v.fused.Position()
	hadPosition := v.fused.HasPosition()
	updated := location.Extrapolate(v.fused, route, profile, speedHint)
	snapshot := *v.fused
	v.mu.Unlock()

	if !updated {
		return false
	}
	var changes location.ChangeSet
	if snapshot.Validity() != oldValidity {
		changes |= location.ChangedValidity
	}
	if snapshot.HasPosition() && (!hadPosition || snapshot.Position() != oldPosition) {
		changes |= location.ChangedPosition
	}
	v.notify(changes, snapshot)
	return true
}

// notify fires the callbacks for a change set in the required order.
func (v *Vehicle) notify(changes location.ChangeSet, snapshot location.Location) {
	if changes == 0 {
		return
	}
	log.Debugf("vehicle %s: location changed: lat %f lng %f validity %s",
		v.name, snapshot.Position().Lat, snapshot.Position().Lng, snapshot.Validity())

	if changes.Has(location.ChangedValidity) {
		v.fire(FieldValidity, snapshot)
	}
	if snapshot.Validity() == location.Invalid {
		// nothing else is meaningful on an invalid location
		return
	}
	for _, n := range notificationOrder {
		if changes.Has(n.change) {
			v.fire(n.field, snapshot)
		}
	}
}

func (v *Vehicle) fire(field Field, snapshot location.Location) {
	v.mu.Lock()
	cbs := v.subs[field]
	v.mu.Unlock()
	for _, cb := range cbs {
		cb(snapshot)
	}
}

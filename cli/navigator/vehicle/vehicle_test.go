package vehicle

import (
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/mvglasow/navfix/cli/navigator/route"
	"github.com/mvglasow/navfix/libs/location"
)

func init() {
	log.SetOutput(io.Discard)
}

// recorder subscribes to every field and records the order in which
// notifications fire.
type recorder struct {
	fields []Field
}

func (r *recorder) subscribeAll(v *Vehicle) {
	for _, f := range []Field{FieldValidity, FieldFixType, FieldSats, FieldSatsUsed, FieldPosition} {
		field := f
		v.Subscribe(field, func(location.Location) {
			r.fields = append(r.fields, field)
		})
	}
}

func TestUpdateSlotFusesIntoLocation(t *testing.T) {
	v := New("test")
	slot := v.AddSource(location.TrustHigh)

	v.UpdateSlot(slot, func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 10, Lng: 20})
		l.SetPositionAccuracy(5)
		l.SetFixTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
		l.SetValidity(location.Valid)
	})

	fused := v.Location()
	assert.True(t, fused.HasPosition())
	assert.Equal(t, location.Coord{Lat: 10, Lng: 20}, fused.Position())
	assert.Equal(t, location.Valid, fused.Validity())
}

func TestNotificationOrder(t *testing.T) {
	v := New("test")
	slot := v.AddSource(location.TrustHigh)
	rec := &recorder{}
	rec.subscribeAll(v)

	// change validity, fix type, satellite data and position in one update
	v.UpdateSlot(slot, func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 10, Lng: 20})
		l.SetPositionAccuracy(5)
		l.SetFixType(2)
		l.SetSatData(11, 9)
		l.SetFixTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
		l.SetValidity(location.Valid)
	})

	assert.Equal(t,
		[]Field{FieldValidity, FieldFixType, FieldSats, FieldSatsUsed, FieldPosition},
		rec.fields)
}

func TestNotificationAtMostOncePerField(t *testing.T) {
	v := New("test")
	slot1 := v.AddSource(location.TrustHigh)
	slot2 := v.AddSource(location.TrustHigh)

	v.UpdateSlot(slot1, func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 10, Lng: 20})
		l.SetPositionAccuracy(5)
		l.SetValidity(location.Valid)
	})

	rec := &recorder{}
	rec.subscribeAll(v)

	// two raw inputs move the position, still a single notification
	v.UpdateSlot(slot2, func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 10.001, Lng: 20})
		l.SetPositionAccuracy(5)
		l.SetValidity(location.Valid)
	})

	assert.Equal(t, []Field{FieldPosition}, rec.fields)
}

func TestInvalidValidityShortCircuit(t *testing.T) {
	v := New("test")
	slot := v.AddSource(location.TrustHigh)

	v.UpdateSlot(slot, func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 10, Lng: 20})
		l.SetPositionAccuracy(5)
		l.SetFixType(2)
		l.SetSatData(11, 9)
		l.SetValidity(location.Valid)
	})

	rec := &recorder{}
	rec.subscribeAll(v)

	// losing the fix changes several fields, but only validity may fire
	v.UpdateSlot(slot, func(l *location.Location) {
		l.SetValidity(location.Invalid)
	})

	assert.Equal(t, []Field{FieldValidity}, rec.fields)
	loc := v.Location()
	assert.Equal(t, location.Invalid, loc.Validity())
}

// staleFix seeds the fused location with a valid position whose fix happened
// in the past, so extrapolation has time to cover.
func staleFix(v *Vehicle, slot int, age time.Duration) {
	v.UpdateSlot(slot, func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 0, Lng: 0})
		l.SetPositionAccuracy(5)
		l.SetFixTime(time.Now().Add(-age))
		l.SetValidity(location.Valid)
	})
}

func TestExtrapolateFiresPositionWhenMoving(t *testing.T) {
	v := New("test")
	slot := v.AddSource(location.TrustHigh)
	staleFix(v, slot, 4*time.Second)

	r := route.New([]route.Point{
		{Coord: location.Coord{Lat: 0, Lng: 0}, RoadType: "street_4_city"},
		{Coord: location.Coord{Lat: 0, Lng: 0.001}, RoadType: "street_4_city"},
		{Coord: location.Coord{Lat: 0, Lng: 0.002}},
	})
	profile := route.NewProfile(map[string]float64{"street_4_city": 50}, location.PolicyIgnoreLimit)

	rec := &recorder{}
	rec.subscribeAll(v)

	assert.True(t, v.Extrapolate(r, profile, 50))
	assert.Equal(t, []Field{FieldPosition}, rec.fields)
	loc := v.Location()
	assert.Greater(t, loc.Position().Lng, 0.0)
}

func TestExtrapolatePinnedAtDestinationStaysQuiet(t *testing.T) {
	v := New("test")
	slot := v.AddSource(location.TrustHigh)
	staleFix(v, slot, 4*time.Second)

	rec := &recorder{}
	rec.subscribeAll(v)

	// an exhausted route pins the vehicle at its current position; the fix
	// time refresh must not masquerade as a position change
	assert.True(t, v.Extrapolate(route.New(nil), route.NewProfile(nil, location.PolicyIgnoreLimit), 0))
	assert.Empty(t, rec.fields)
	loc := v.Location()
	assert.Equal(t, location.Coord{Lat: 0, Lng: 0}, loc.Position())
}

func TestNoChangeNoNotification(t *testing.T) {
	v := New("test")
	slot := v.AddSource(location.TrustHigh)
	update := func(l *location.Location) {
		l.SetPosition(location.Coord{Lat: 10, Lng: 20})
		l.SetPositionAccuracy(5)
		l.SetValidity(location.Valid)
	}
	v.UpdateSlot(slot, update)

	rec := &recorder{}
	rec.subscribeAll(v)
	v.UpdateSlot(slot, update)

	assert.Empty(t, rec.fields)
}

package geo

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{
			name:     "same point",
			a:        Point{Lat: -23.5505, Lng: -46.6333},
			b:        Point{Lat: -23.5505, Lng: -46.6333},
			expected: 0,
			delta:    1e-9,
		},
		{
			name:     "one degree of latitude",
			a:        Point{Lat: 0, Lng: 0},
			b:        Point{Lat: 1, Lng: 0},
			expected: 111.195,
			delta:    0.01,
		},
		{
			name:     "sao paulo to rio de janeiro",
			a:        Point{Lat: -23.5505, Lng: -46.6333},
			b:        Point{Lat: -22.9068, Lng: -43.1729},
			expected: 357.7,
			delta:    1.0,
		},
		{
			name:     "antipodal points",
			a:        Point{Lat: 0, Lng: 0},
			b:        Point{Lat: 0, Lng: 180},
			expected: math.Pi * EarthRadiusKm,
			delta:    0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceKm(tt.a, tt.b), tt.delta)
		})
	}
}

func TestWithinRadius(t *testing.T) {
	offer := &Point{Lat: -23.5505, Lng: -46.6333}
	// ~0.8 km north of the offer
	near := &Point{Lat: -23.5505 + 0.8/111.195, Lng: -46.6333}
	// ~1.5 km north of the offer
	far := &Point{Lat: -23.5505 + 1.5/111.195, Lng: -46.6333}

	ok, d := WithinRadius(near, offer, 1.0)
	assert.True(t, ok)
	assert.InDelta(t, 0.8, d, 0.01)

	ok, _ = WithinRadius(far, offer, 1.0)
	assert.False(t, ok)

	ok, d = WithinRadius(nil, offer, 1.0)
	assert.False(t, ok, "missing device fix must fail the gate")
	assert.True(t, math.IsInf(d, 1))

	ok, _ = WithinRadius(near, nil, 1.0)
	assert.False(t, ok, "missing offer coordinates must fail the gate")
}

func TestNewPoint(t *testing.T) {
	lat, lng := 1.5, 2.5
	assert.Nil(t, NewPoint(nil, &lng))
	assert.Nil(t, NewPoint(&lat, nil))
	assert.Equal(t, &Point{Lat: 1.5, Lng: 2.5}, NewPoint(&lat, &lng))
}

func TestPointValidate(t *testing.T) {
	assert.NoError(t, Point{Lat: 45, Lng: 120}.Validate())
	assert.Error(t, Point{Lat: 91, Lng: 0}.Validate())
	assert.Error(t, Point{Lat: 0, Lng: -181}.Validate())
	assert.Error(t, Point{Lat: math.NaN(), Lng: 0}.Validate())
}

func TestProperty_DistanceIsSymmetricAndNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("distance(a, b) == distance(b, a) >= 0", prop.ForAll(
		func(lat1, lng1, lat2, lng2 float64) bool {
			a := Point{Lat: lat1, Lng: lng1}
			b := Point{Lat: lat2, Lng: lng2}
			d1 := DistanceKm(a, b)
			d2 := DistanceKm(b, a)
			return d1 >= 0 && math.Abs(d1-d2) < 1e-9 && d1 <= math.Pi*EarthRadiusKm+1e-6
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}

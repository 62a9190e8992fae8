package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_Empty(t *testing.T) {
	s := NewRecorder().Summary()

	assert.Equal(t, int64(0), s.Count)
	assert.Equal(t, time.Duration(0), s.P95)
}

func TestRecorder_Summary(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i)*time.Millisecond, i%10 == 0)
	}

	s := r.Summary()
	assert.Equal(t, int64(100), s.Count)
	assert.Equal(t, int64(10), s.Failures)
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(10*time.Microsecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.True(t, s.P99 >= s.P95)
}

func TestRecorder_ClampsOutOfRange(t *testing.T) {
	r := NewRecorder()
	r.Record(0, false)
	r.Record(2*time.Hour, false)

	s := r.Summary()
	assert.Equal(t, int64(2), s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record(time.Millisecond, false)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(400), r.Summary().Count)
}

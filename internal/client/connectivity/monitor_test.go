package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchProber struct {
	up atomic.Bool
}

func (p *switchProber) Check(context.Context) error {
	if p.up.Load() {
		return nil
	}
	return errors.New("unreachable")
}

func TestClassifyRTT(t *testing.T) {
	cases := map[time.Duration]string{
		50 * time.Millisecond:   Network4G,
		300 * time.Millisecond:  Network3G,
		1500 * time.Millisecond: Network2G,
		3 * time.Second:         NetworkSlow2G,
	}
	for rtt, want := range cases {
		assert.Equal(t, want, ClassifyRTT(rtt), rtt.String())
	}
}

func TestProbe_NotifiesOnTransitionsOnly(t *testing.T) {
	p := &switchProber{}
	m := NewMonitor(time.Hour, time.Second, nil, p)

	var events []bool
	m.Subscribe(func(online bool) { events = append(events, online) })

	ctx := context.Background()
	assert.False(t, m.Probe(ctx))
	assert.False(t, m.Probe(ctx))
	assert.Equal(t, NetworkOffline, m.NetworkType())

	p.up.Store(true)
	assert.True(t, m.Probe(ctx))
	assert.True(t, m.Probe(ctx))
	assert.True(t, m.Online())
	assert.Equal(t, Network4G, m.NetworkType())

	p.up.Store(false)
	m.Probe(ctx)

	assert.Equal(t, []bool{false, true, false}, events)
}

func TestProbe_FallsBackToSecondProber(t *testing.T) {
	down := ProberFunc(func(context.Context) error { return errors.New("grpc down") })
	up := ProberFunc(func(context.Context) error { return nil })

	m := NewMonitor(time.Hour, time.Second, nil, down, up)
	assert.True(t, m.Probe(context.Background()))
}

func TestProbe_TimeoutIsOffline(t *testing.T) {
	slow := ProberFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m := NewMonitor(time.Hour, 10*time.Millisecond, nil, slow)
	assert.False(t, m.Probe(context.Background()))
}

func TestProbe_NoProbers(t *testing.T) {
	m := NewMonitor(0, 0, nil)
	assert.False(t, m.Probe(context.Background()))
}

func TestNetworkType_UsesMeasuredRTT(t *testing.T) {
	m := NewMonitor(time.Hour, time.Second, nil, ProberFunc(func(context.Context) error { return nil }))
	calls := 0
	base := time.Unix(0, 0)
	m.now = func() time.Time {
		calls++
		if calls%2 == 1 {
			return base
		}
		return base.Add(500 * time.Millisecond)
	}

	m.Probe(context.Background())
	assert.Equal(t, Network3G, m.NetworkType())
}

func TestRun_ProbesUntilCancelled(t *testing.T) {
	var n atomic.Int32
	m := NewMonitor(time.Millisecond, time.Second, nil, ProberFunc(func(context.Context) error {
		n.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Run(ctx)
	}()

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	wg.Wait()
	assert.True(t, m.Online())
}

package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
)

func TestFrameWorker_DeliversHitAndDropsWhileSuspended(t *testing.T) {
	s, be := newScriptedSession(barcode.CapDecode|barcode.CapLocalize, Options{WantLocalization: true},
		nil,
		[]barcode.Result{hit("live", 1, 1, 8)},
	)
	w := NewFrameWorker(s, DefaultWorkerConfig())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	var out *Outcome
	deadline := time.After(5 * time.Second)
	for out == nil {
		w.Submit(frame())
		select {
		case out = <-w.Outcomes():
		case <-deadline:
			t.Fatal("no outcome delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	assert.Equal(t, []string{"live"}, out.Result.Texts)
	assert.Equal(t, Suspended, s.Gate().State())

	decodes := be.decodes.Load()
	assert.False(t, w.Submit(frame()), "suspended gate drops frames")
	assert.Equal(t, decodes, be.decodes.Load())

	st := w.Stats()
	assert.GreaterOrEqual(t, st.Analyzed, uint64(2))
	assert.Equal(t, uint64(1), st.Hits)
	assert.Positive(t, st.Dropped)
	assert.Zero(t, st.Failed)
	assert.GreaterOrEqual(t, st.Submitted, st.Dropped+st.Analyzed)
}

func TestFrameWorker_QueueFullDrops(t *testing.T) {
	s, be := newScriptedSession(barcode.CapDecode, Options{})
	be.block = make(chan struct{})
	dropped := 0
	w := NewFrameWorker(s, WorkerConfig{Workers: 1, QueueSize: 1})
	w.OnDrop = func() { dropped++ }
	require.NoError(t, w.Start(context.Background()))

	// first frame is picked up and blocks inside Decode
	require.True(t, w.Submit(frame()))
	require.Eventually(t, func() bool { return be.decodes.Load() == 1 }, 5*time.Second, time.Millisecond)

	// the gate is held by the running analysis, so new frames are dropped
	assert.False(t, w.Submit(frame()))
	assert.Equal(t, 1, dropped)

	close(be.block)
	w.Stop()
	assert.Equal(t, uint64(1), w.Stats().Dropped)
}

func TestFrameWorker_Lifecycle(t *testing.T) {
	s, _ := newScriptedSession(barcode.CapDecode, Options{})
	w := NewFrameWorker(s, WorkerConfig{})
	assert.False(t, w.Submit(frame()), "not started")

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.Error(t, w.Start(context.Background()))
	assert.False(t, w.Submit(frame()))

	_, open := <-w.Outcomes()
	assert.False(t, open)
}

func TestFrameWorker_StopWithoutStart(t *testing.T) {
	s, _ := newScriptedSession(barcode.CapDecode, Options{})
	w := NewFrameWorker(s, WorkerConfig{Workers: 2, QueueSize: 4})
	w.Stop()
	_, open := <-w.Outcomes()
	assert.False(t, open)
}

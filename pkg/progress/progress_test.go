package progress_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapex/pkg/progress"
)

func TestSendAndReceive(t *testing.T) {
	r := progress.NewReporter()
	r.Send(5, "Fetching snapshot data...")
	r.Send(30, "Processing snapshot assets...")
	r.Close()

	var got []progress.Event
	for ev := range r.Events() {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, progress.Event{Progress: 5, Message: "Fetching snapshot data..."}, got[0])
	assert.Equal(t, 30, got[1].Progress)
}

func TestSendNeverBlocks(t *testing.T) {
	r := progress.NewReporter()
	for i := 0; i < 100; i++ {
		r.Send(i, "checkpoint")
	}
}

func TestErrorEvent(t *testing.T) {
	r := progress.NewReporter()
	r.Error(errors.New("snapshot fetch failed"))

	ev := <-r.Events()
	assert.Equal(t, 0, ev.Progress)
	assert.Equal(t, "Error: snapshot fetch failed", ev.Message)
}

func TestNilReporter(t *testing.T) {
	var r *progress.Reporter
	r.Send(50, "ignored")
	r.Error(errors.New("ignored"))
	r.Close()
}

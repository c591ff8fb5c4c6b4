package events

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFanout(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	fanout := Fanout{first, Discard{}, second}

	id := uuid.New()
	fanout.Publish(context.Background(), Event{Type: RoundGenerated, TournamentID: id, Round: 1})
	fanout.Publish(context.Background(), Event{Type: StatusChanged, TournamentID: id})

	assert.Equal(t, []Type{RoundGenerated, StatusChanged}, first.Types())
	assert.Equal(t, first.Events(), second.Events())
}

func TestRecorder_ConcurrentPublish(t *testing.T) {
	rec := &Recorder{}
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Publish(context.Background(), Event{Type: ResultSubmitted, TournamentID: id})
			_ = rec.Events()
		}()
	}
	wg.Wait()

	got := rec.Events()
	assert.Len(t, got, 8)

	got[0].Type = StatusChanged
	assert.Equal(t, ResultSubmitted, rec.Events()[0].Type, "returned slice is a copy")
}

package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundryops/internal/domain"
)

var createdAt = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return createdAt.Add(time.Duration(hours) * time.Hour) }

func ptrTime(t time.Time) *time.Time { return &t }

func ptrString(s string) *string { return &s }

func classifications(entries []domain.TimelineEntry) map[domain.PipelineStage]domain.TimelineClassification {
	out := make(map[domain.PipelineStage]domain.TimelineClassification, len(entries))
	for _, e := range entries {
		out[e.Stage] = e.Classification
	}
	return out
}

func TestReconstructNewOrder(t *testing.T) {
	entries := Reconstruct(Pipeline, nil, createdAt, domain.StageWaitingForPickup)

	require.Len(t, entries, len(Pipeline))
	first := entries[0]
	assert.Equal(t, domain.StageWaitingForPickup, first.Stage)
	assert.Equal(t, domain.TimelineCompleted, first.Classification)
	require.NotNil(t, first.OccurredAt)
	assert.Equal(t, createdAt, *first.OccurredAt)
	assert.Equal(t, SystemActor, *first.Actor)
	assert.Equal(t, OrderCreatedNote, *first.Note)

	for _, e := range entries[1:] {
		assert.Equal(t, domain.TimelinePending, e.Classification, "stage %s", e.Stage)
		assert.Nil(t, e.OccurredAt)
		assert.Nil(t, e.Actor)
		assert.Nil(t, e.Note)
	}
}

func TestReconstructAlwaysCoversPipeline(t *testing.T) {
	records := []domain.WorkProcessRecord{
		{Stage: domain.WorkWashing, StartedAt: at(5), CompletedAt: ptrTime(at(6)), WorkerName: "Sari"},
		{Stage: domain.WorkIroning, StartedAt: at(7), WorkerName: "Budi"},
		{Stage: domain.WorkPacking, StartedAt: at(8), CompletedAt: ptrTime(at(9)), WorkerName: "Dewi"},
		{Stage: "FOLDING", StartedAt: at(9)},
	}

	for _, status := range append([]domain.PipelineStage{"UNKNOWN"}, Pipeline...) {
		for n := 0; n <= len(records); n++ {
			entries := Reconstruct(Pipeline, records[:n], createdAt, status)
			require.Len(t, entries, len(Pipeline))
			for i, e := range entries {
				assert.Equal(t, Pipeline[i], e.Stage)
			}
		}
	}

	assert.Empty(t, Reconstruct(nil, records, createdAt, domain.StageCompleted))
}

func TestReconstructMidPipeline(t *testing.T) {
	records := []domain.WorkProcessRecord{
		{Stage: domain.WorkWashing, StartedAt: at(5), CompletedAt: ptrTime(at(6)), WorkerName: "Sari", Notes: ptrString("two loads")},
	}

	entries := Reconstruct(Pipeline, records, createdAt, domain.StageBeingIroned)
	got := classifications(entries)

	assert.Equal(t, domain.TimelineCompleted, got[domain.StageWaitingForPickup])
	for _, stage := range []domain.PipelineStage{
		domain.StageDriverToCustomer,
		domain.StageDriverToOutlet,
		domain.StageArrivedAtOutlet,
		domain.StageReadyForWashing,
	} {
		assert.Equal(t, domain.TimelineSkipped, got[stage], "stage %s", stage)
	}
	assert.Equal(t, domain.TimelineCompleted, got[domain.StageBeingWashed])
	assert.Equal(t, domain.TimelineCurrent, got[domain.StageBeingIroned])
	assert.Equal(t, domain.TimelinePending, got[domain.StageBeingPacked])
	assert.Equal(t, domain.TimelinePending, got[domain.StageCompleted])

	washed := entries[IndexOf(Pipeline, domain.StageBeingWashed)]
	assert.Equal(t, at(6), *washed.OccurredAt)
	assert.Equal(t, "Sari", *washed.Actor)
	assert.Equal(t, "Washing completed", *washed.Note)

	skipped := entries[IndexOf(Pipeline, domain.StageDriverToOutlet)]
	assert.Nil(t, skipped.OccurredAt)
	assert.Nil(t, skipped.Actor)
	assert.Nil(t, skipped.Note)
}

func TestReconstructEvidenceBeatsPosition(t *testing.T) {
	records := []domain.WorkProcessRecord{
		{Stage: domain.WorkPacking, StartedAt: at(3), WorkerName: "Dewi", Notes: ptrString("packed early")},
	}

	entries := Reconstruct(Pipeline, records, createdAt, domain.StageArrivedAtOutlet)
	got := classifications(entries)

	assert.Equal(t, domain.TimelineCompleted, got[domain.StageBeingPacked])
	assert.Equal(t, domain.TimelineCurrent, got[domain.StageArrivedAtOutlet])
	assert.Equal(t, domain.TimelinePending, got[domain.StageBeingWashed])

	packed := entries[IndexOf(Pipeline, domain.StageBeingPacked)]
	assert.Equal(t, "packed early", *packed.Note)
}

func TestReconstructCurrentStageWithRecordIsCompleted(t *testing.T) {
	records := []domain.WorkProcessRecord{{Stage: domain.WorkWashing, StartedAt: at(4), WorkerName: "Sari"}}

	entries := Reconstruct(Pipeline, records, createdAt, domain.StageBeingWashed)

	washed := entries[IndexOf(Pipeline, domain.StageBeingWashed)]
	assert.Equal(t, domain.TimelineCompleted, washed.Classification)
	assert.Equal(t, at(4), *washed.OccurredAt)
	assert.Nil(t, washed.Note)
}

func TestReconstructActorFallback(t *testing.T) {
	records := []domain.WorkProcessRecord{{Stage: domain.WorkIroning, StartedAt: at(2)}}

	entries := Reconstruct(Pipeline, records, createdAt, domain.StageBeingIroned)

	ironed := entries[IndexOf(Pipeline, domain.StageBeingIroned)]
	assert.Equal(t, UnknownActor, *ironed.Actor)
}

func TestReconstructUnknownStatus(t *testing.T) {
	entries := Reconstruct(Pipeline, nil, createdAt, "LOST")

	for _, e := range entries[1:] {
		assert.Equal(t, domain.TimelinePending, e.Classification)
	}
}

func TestReconstructCompletedOrder(t *testing.T) {
	entries := Reconstruct(Pipeline, nil, createdAt, domain.StageCompleted)
	got := classifications(entries)

	assert.Equal(t, domain.TimelineCompleted, got[domain.StageWaitingForPickup])
	assert.Equal(t, domain.TimelineCurrent, got[domain.StageCompleted])
	assert.Equal(t, domain.TimelineSkipped, got[domain.StageBeingWashed])
}

func TestReconstructDoesNotAliasRecordNotes(t *testing.T) {
	notes := "stain on collar"
	records := []domain.WorkProcessRecord{{Stage: domain.WorkWashing, StartedAt: at(1), Notes: &notes}}

	entries := Reconstruct(Pipeline, records, createdAt, domain.StageBeingWashed)
	*entries[IndexOf(Pipeline, domain.StageBeingWashed)].Note = "changed"

	assert.Equal(t, "stain on collar", notes)
}

func TestEvents(t *testing.T) {
	records := []domain.WorkProcessRecord{
		{Stage: domain.WorkWashing, StartedAt: at(5), CompletedAt: ptrTime(at(6)), WorkerName: "Sari"},
		{Stage: domain.WorkIroning, StartedAt: at(7)},
	}

	events := Events(Pipeline, records, createdAt)

	require.Len(t, events, 4)
	assert.Equal(t, domain.EventOrderCreated, events[0].Kind)
	assert.Equal(t, domain.StageWaitingForPickup, events[0].Stage)
	assert.Equal(t, domain.EventStageStarted, events[1].Kind)
	assert.Equal(t, domain.EventStageCompleted, events[2].Kind)
	assert.Equal(t, "Washing completed", *events[2].Note)
	assert.Equal(t, UnknownActor, events[3].Actor)
	assert.Nil(t, events[3].Note)
}

func TestRecentActivity(t *testing.T) {
	records := []domain.WorkProcessRecord{
		{Stage: domain.WorkIroning, StartedAt: at(7)},
		{Stage: domain.WorkWashing, StartedAt: at(5), CompletedAt: ptrTime(at(6))},
	}
	events := Events(Pipeline, records, createdAt)

	recent := RecentActivity(events)

	require.Len(t, recent, len(events))
	want := []time.Time{at(7), at(6), at(5), createdAt}
	for i, e := range recent {
		assert.Equal(t, want[i], e.OccurredAt)
	}
	assert.Equal(t, createdAt, events[0].OccurredAt, "input must stay in place")
}

func TestStageFor(t *testing.T) {
	stage, ok := StageFor(domain.WorkPacking)
	assert.True(t, ok)
	assert.Equal(t, domain.StageBeingPacked, stage)

	_, ok = StageFor("DRY_CLEANING")
	assert.False(t, ok)
}

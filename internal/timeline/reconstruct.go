package timeline

import (
	"sort"
	"time"

	"laundryops/internal/domain"
)

const (
	SystemActor        = "System"
	UnknownActor       = "Unknown"
	OrderCreatedNote   = "Order created by customer"
	completedNoteTrail = " completed"
)

// Events flattens an order's history into timeline events: one synthetic
// creation event on the first pipeline stage, a start event per work process
// and a completion event for every finished one. Records whose stage has no
// place on the pipeline are dropped.
func Events(pipeline []domain.PipelineStage, records []domain.WorkProcessRecord, orderCreatedAt time.Time) []domain.TimelineEvent {
	events := make([]domain.TimelineEvent, 0, 1+2*len(records))
	if len(pipeline) > 0 {
		note := OrderCreatedNote
		events = append(events, domain.TimelineEvent{
			Stage:      pipeline[0],
			Kind:       domain.EventOrderCreated,
			OccurredAt: orderCreatedAt,
			Actor:      SystemActor,
			Note:       &note,
		})
	}

	for _, record := range records {
		stage, ok := StageFor(record.Stage)
		if !ok {
			continue
		}

		actor := record.WorkerName
		if actor == "" {
			actor = UnknownActor
		}

		events = append(events, domain.TimelineEvent{
			Stage:      stage,
			Kind:       domain.EventStageStarted,
			OccurredAt: record.StartedAt,
			Actor:      actor,
			Note:       cloneString(record.Notes),
		})

		if record.CompletedAt != nil {
			note := workLabel(record.Stage) + completedNoteTrail
			events = append(events, domain.TimelineEvent{
				Stage:      stage,
				Kind:       domain.EventStageCompleted,
				OccurredAt: *record.CompletedAt,
				Actor:      actor,
				Note:       &note,
			})
		}
	}
	return events
}

// Reconstruct classifies every pipeline stage for progress display. A stage
// with any recorded event is COMPLETED wherever it sits; otherwise stages
// before the current status are SKIPPED, the current status is CURRENT and
// the rest are PENDING. SKIPPED covers both stages bypassed on purpose and
// stages with missing records; the history carries nothing to tell them apart.
//
// The result always has one entry per pipeline stage, in pipeline order.
func Reconstruct(pipeline []domain.PipelineStage, records []domain.WorkProcessRecord, orderCreatedAt time.Time, currentStatus domain.PipelineStage) []domain.TimelineEntry {
	latest := latestByStage(Events(pipeline, records, orderCreatedAt))
	currentIndex := IndexOf(pipeline, currentStatus)

	entries := make([]domain.TimelineEntry, len(pipeline))
	for i, stage := range pipeline {
		entry := domain.TimelineEntry{Stage: stage}
		event, happened := latest[stage]

		switch {
		case happened:
			entry.Classification = domain.TimelineCompleted
		case i < currentIndex:
			entry.Classification = domain.TimelineSkipped
		case stage == currentStatus:
			entry.Classification = domain.TimelineCurrent
		default:
			entry.Classification = domain.TimelinePending
		}

		if happened {
			occurredAt := event.OccurredAt
			actor := event.Actor
			entry.OccurredAt = &occurredAt
			entry.Actor = &actor
			entry.Note = cloneString(event.Note)
		}
		entries[i] = entry
	}
	return entries
}

// RecentActivity orders events newest first for an activity feed. It does
// not modify events.
func RecentActivity(events []domain.TimelineEvent) []domain.TimelineEvent {
	sorted := make([]domain.TimelineEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.After(sorted[j].OccurredAt)
	})
	return sorted
}

// latestByStage keeps the most recent event per stage. On equal timestamps
// the later event in the slice wins, so a completion beats its start.
func latestByStage(events []domain.TimelineEvent) map[domain.PipelineStage]domain.TimelineEvent {
	latest := make(map[domain.PipelineStage]domain.TimelineEvent, len(events))
	for _, event := range events {
		prev, seen := latest[event.Stage]
		if seen && event.OccurredAt.Before(prev.OccurredAt) {
			continue
		}
		latest[event.Stage] = event
	}
	return latest
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

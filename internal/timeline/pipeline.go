package timeline

import "laundryops/internal/domain"

// Pipeline is the fixed, ordered order lifecycle. Consumers classifying or
// rendering a timeline must use this same ordering.
var Pipeline = []domain.PipelineStage{
	domain.StageWaitingForPickup,
	domain.StageDriverToCustomer,
	domain.StageDriverToOutlet,
	domain.StageArrivedAtOutlet,
	domain.StageReadyForWashing,
	domain.StageBeingWashed,
	domain.StageBeingIroned,
	domain.StageBeingPacked,
	domain.StageWaitingForPayment,
	domain.StageReadyForDelivery,
	domain.StageBeingDelivered,
	domain.StageCompleted,
}

// StageFor maps a work-process stage onto the pipeline.
func StageFor(stage domain.WorkProcessStage) (domain.PipelineStage, bool) {
	switch stage {
	case domain.WorkWashing:
		return domain.StageBeingWashed, true
	case domain.WorkIroning:
		return domain.StageBeingIroned, true
	case domain.WorkPacking:
		return domain.StageBeingPacked, true
	default:
		return "", false
	}
}

func workLabel(stage domain.WorkProcessStage) string {
	switch stage {
	case domain.WorkWashing:
		return "Washing"
	case domain.WorkIroning:
		return "Ironing"
	case domain.WorkPacking:
		return "Packing"
	default:
		return string(stage)
	}
}

// IndexOf returns the position of stage in pipeline, or -1.
func IndexOf(pipeline []domain.PipelineStage, stage domain.PipelineStage) int {
	for i, s := range pipeline {
		if s == stage {
			return i
		}
	}
	return -1
}

package repository

import "github.com/skiplinehq/skipline/internal/model"

// transitionMap lists, per target status, which current statuses a
// queue entry may move from. waiting and notified are the two
// active states; the other three are terminal and have no outgoing
// transitions.
var transitionMap = map[string][]string{
	model.QueueStatusNotified:  {model.QueueStatusWaiting},
	model.QueueStatusCompleted: {model.QueueStatusNotified},
	model.QueueStatusCancelled: {model.QueueStatusWaiting},
	model.QueueStatusNoShow:    {model.QueueStatusWaiting, model.QueueStatusNotified},
}

// ValidTransition reports whether a queue entry currently in
// fromStatus may move to toStatus.
func ValidTransition(fromStatus, toStatus string) bool {
	allowed, ok := transitionMap[toStatus]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// EstimateWaitMinutes converts a queue position into the wait shown
// to the customer. The business's average service time is the only
// signal used; a customer at position N waits roughly N service
// slots.
func EstimateWaitMinutes(position, averageServiceMinutes uint32) uint32 {
	return position * averageServiceMinutes
}

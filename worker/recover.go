package worker

import (
	"github.com/Jayke770/stablebot-worker/mongodb"
)

// SettlePayload the payload of a settlement job
type SettlePayload struct {
	BridgeID string `json:"bridgeId"`
}

// ScanPendingBridges re-enqueues a settlement job for every pending
// bridge that has no job scheduled or in flight. Pure reconciliation,
// the queue's dedupe key keeps concurrent attempts for one bridge out.
func (s *Settler) ScanPendingBridges(queue TaskQueue) error {
	bridges, err := s.store.FindBridgesWithStatus(mongodb.StatusPending)
	if err != nil {
		logWorkerError("scan", "find pending bridges failed", err)
		return err
	}
	if len(bridges) == 0 {
		return nil
	}
	enqueued := 0
	for _, bridge := range bridges {
		added, err := queue.Enqueue(TaskSettleBridge, bridge.BridgeID, &SettlePayload{BridgeID: bridge.BridgeID})
		if err != nil {
			logWorkerError("scan", "enqueue settlement failed", err, "bridgeID", bridge.BridgeID)
			continue
		}
		if added {
			enqueued++
		}
	}
	logWorker("scan", "pending bridges scanned", "pending", len(bridges), "enqueued", enqueued)
	return nil
}

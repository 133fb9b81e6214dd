package service

import "context"

// RunMaintainBatch is the reconciliation sweep: a safety net for payments
// the user-facing poll never caught (closed tab, webhook outage, crashed
// process). Safe to invoke repeatedly and concurrently with itself; when
// everything has been processed it degrades to one empty provider search.
func (s *PurchaseService) RunMaintainBatch(ctx context.Context) error {
	intents, err := s.ScanGlobally(ctx, s.globalScanLimit())
	if err != nil {
		return err
	}

	processed := s.ProcessBatch(ctx, intents)
	if processed > 0 {
		s.logger.WithField("credits", processed).Info("Reconciliation sweep recorded credits")
	}
	return nil
}

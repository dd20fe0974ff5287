package jobs

import (
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/ledger"
	"github.com/jobsetu/backend/internal/services/notify"
)

// RegisterAllJobHandlers registers every queue job handler.
func RegisterAllJobHandlers(q *queue.Queue, ledgerSvc *ledger.Service, notifySvc *notify.Service) {
	RegisterCoinHistoryJobHandler(q, ledgerSvc)
	RegisterNotificationJobHandler(q, notifySvc)
}

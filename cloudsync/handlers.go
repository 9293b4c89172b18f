package cloudsync

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type statusResponse struct {
	Status          string  `json:"status"`
	LastSyncAt      *string `json:"lastSyncAt"`
	LastSyncError   string  `json:"lastSyncError"`
	RecordsSynced   int     `json:"recordsSynced"`
	CompanyId       string  `json:"companyId"`
	PendingEntries  int64   `json:"pendingEntries"`
	PoisonedEntries int64   `json:"poisonedEntries"`
}

// StatusHandler exposes the sync snapshot to the back-office UI.
func StatusHandler(w *Worker) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := w.Status(c.Request.Context())
		resp := statusResponse{
			Status:          string(snap.Status),
			LastSyncError:   snap.LastSyncError,
			RecordsSynced:   snap.RecordsSynced,
			CompanyId:       snap.CompanyId,
			PendingEntries:  snap.PendingEntries,
			PoisonedEntries: snap.PoisonedEntries,
		}
		if snap.LastSyncAt != nil {
			at := snap.LastSyncAt.Format(time.RFC3339)
			resp.LastSyncAt = &at
		}
		c.JSON(http.StatusOK, resp)
	}
}

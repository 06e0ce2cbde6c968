package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leafyhealth/accounting-management/internal/cache"
)

const (
	generationKey = "report-generation"
	// generationTTL bounds how long a generation token lives; report entries
	// are kept strictly shorter so none outlives the token it was stored under.
	generationTTL = 24 * time.Hour
	maxReportTTL  = generationTTL / 2
)

// Invalidate retires every cached report. A new generation token is written
// first, so a report computed before the ledger write but stored after it
// lands under the retired token and is never served.
func Invalidate(ctx context.Context, store cache.Store) error {
	if err := store.Set(ctx, generationKey, []byte(uuid.NewString()), generationTTL); err != nil {
		return err
	}
	return store.DeleteMatching(ctx, CacheKeys)
}

// generation returns the current token, "0" until the first ledger write.
func generation(ctx context.Context, store cache.Store) string {
	raw, err := store.Get(ctx, generationKey)
	if err != nil || len(raw) == 0 {
		return "0"
	}
	return string(raw)
}

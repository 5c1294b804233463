package usecase

import (
	"math"
	"sort"

	"NewsEdge/internal/domain/models"
)

// RankSignals orders candidates strongest first and truncates to the run
// cap. Ties break toward the fresher news item, then by instrument for a
// deterministic total order. Dropped signals are returned so the caller can
// free their dedup reservations; max <= 0 keeps everything.
func RankSignals(signals []*models.Signal, max int) (kept, dropped []*models.Signal) {
	out := make([]*models.Signal, len(signals))
	copy(out, signals)

	sort.Slice(out, func(i, j int) bool {
		si, sj := math.Abs(out[i].CombinedScore), math.Abs(out[j].CombinedScore)
		if si != sj {
			return si > sj
		}
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].Instrument < out[j].Instrument
	})

	if max <= 0 || len(out) <= max {
		return out, nil
	}
	return out[:max], out[max:]
}

package events

import (
	"time"

	"github.com/radieske/odds-tracker/internal/odds"
)

// ScrapeBatch é publicado no tópico "match_snapshots": tudo que um ciclo do
// scraper coletou, gravado de uma vez pelo odds-processor-worker.
type ScrapeBatch struct {
	BatchID   string                  `json:"batch_id"`
	Source    string                  `json:"source"` // "odds-scraper"
	ScrapedAt time.Time               `json:"scraped_at"`
	Matches   []odds.RawMatchSnapshot `json:"matches"`
}

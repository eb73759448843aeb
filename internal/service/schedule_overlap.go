package service

import "github.com/noah-isme/campus-api/internal/models"

// interval is a half-open [start, end) range in minutes after midnight.
type interval struct {
	start, end int
}

func (a interval) overlaps(b interval) bool {
	return a.start < b.end && b.start < a.end
}

func blockInterval(start, end string) (interval, error) {
	s, err := models.ParseClock(start)
	if err != nil {
		return interval{}, err
	}
	e, err := models.ParseClock(end)
	if err != nil {
		return interval{}, err
	}
	return interval{start: s, end: e}, nil
}

// FindOverlap returns the first block on day whose interval intersects
// [start, end). The block with id excludeID is skipped so an update does not
// collide with its own previous version. Blocks ending exactly when the
// candidate starts do not conflict. Stored blocks with unparsable times are
// ignored.
func FindOverlap(day models.Weekday, start, end string, blocks []models.TimeBlock, excludeID string) (*models.TimeBlock, error) {
	candidate, err := blockInterval(start, end)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		block := blocks[i]
		if block.Day != day || (excludeID != "" && block.ID == excludeID) {
			continue
		}
		existing, err := blockInterval(block.Start, block.End)
		if err != nil {
			continue
		}
		if candidate.overlaps(existing) {
			return &block, nil
		}
	}
	return nil, nil
}

// HasOverlap reports whether [start, end) on day collides with any of blocks.
func HasOverlap(day models.Weekday, start, end string, blocks []models.TimeBlock, excludeID string) bool {
	conflict, err := FindOverlap(day, start, end, blocks, excludeID)
	return err == nil && conflict != nil
}

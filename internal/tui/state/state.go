package state

import "github.com/glabrego/infopanel/internal/pipeline"

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// PageStep is the number of entries a page jump moves, given the rows each
// entry takes up.
func PageStep(height, rowsPerEntry int, hasStatus bool) int {
	if rowsPerEntry < 1 {
		rowsPerEntry = 1
	}
	if height <= 0 {
		return 10
	}
	headerLines := 6
	if hasStatus {
		headerLines += 2
	}
	step := (height - headerLines) / rowsPerEntry
	if step < 3 {
		step = 3
	}
	return step
}

func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

// EntryIndexByPosition finds the list index holding the given feed position,
// or -1. entries must be sorted by position.
func EntryIndexByPosition(entries []pipeline.Entry, position int) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case entries[mid].Position == position:
			return mid
		case entries[mid].Position < position:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

// FollowPosition keeps the cursor on the entry it pointed at while entries
// are inserted around it. Without a tracked position it clamps.
func FollowPosition(entries []pipeline.Entry, cursor, position int, tracked bool) int {
	if tracked {
		if idx := EntryIndexByPosition(entries, position); idx >= 0 {
			return idx
		}
	}
	return ClampCursor(cursor, len(entries))
}

// Package progress connects per-item progress callbacks of the organizer and
// undo executor to the staged callbacks front ends receive.
package progress

// Func receives per-item progress.
type Func func(processed, total int)

// StageFunc receives progress for a named workflow stage.
type StageFunc func(stage string, processed, total int)

// Emit calls cb with processed clamped to [0, total].
// It is a no-op when cb is nil or total is non-positive.
func Emit(cb Func, processed, total int) {
	if cb == nil || total <= 0 {
		return
	}

	cb(min(max(processed, 0), total), total)
}

// ForStage returns a Func that reports to cb under stage, or nil when cb is
// nil.
func ForStage(cb StageFunc, stage string) Func {
	if cb == nil {
		return nil
	}

	return func(processed, total int) {
		cb(stage, processed, total)
	}
}

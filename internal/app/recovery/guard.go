package recovery

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"devboot/internal/app/fault"
	"devboot/internal/config/logger"
)

// Guard must be deferred directly; it turns a panic into a critical record and dump, then re-panics
func (h *Handler) Guard() {
	if v := recover(); v != nil {
		record := panicRecord(v, h.now())

		h.mu.Lock()
		h.records = append(h.records, record)
		h.mu.Unlock()

		crash(h.dumpDir, record, h.Records(), h.stack.Len(), h.notifier, h.log)
		panic(v)
	}
}

// Go runs fn in a goroutine under Guard
func (h *Handler) Go(fn func()) {
	go func() {
		defer h.Guard()
		fn()
	}()
}

// Guard is the process-wide variant used before a run exists; defer it directly from main
func Guard(dumpDir string, notifier Notifier, log logger.Logger) {
	if v := recover(); v != nil {
		if notifier == nil {
			notifier = noopNotifier{}
		}

		record := panicRecord(v, time.Now())
		crash(dumpDir, record, []fault.Record{record}, 0, notifier, log)
		notifier.Close()
		panic(v)
	}
}

func panicRecord(v any, now time.Time) fault.Record {
	return fault.NewRecord(
		fault.SystemInitFailed,
		fmt.Sprintf("unhandled panic: %v", v),
		map[string]string{"stack": string(debug.Stack())},
		now,
	)
}

func crash(dir string, record fault.Record, records []fault.Record, pending int, notifier Notifier, log logger.Logger) {
	path, err := writeDump(dir, Dump{
		Timestamp:       record.Timestamp,
		Reason:          "panic",
		Record:          record,
		Errors:          records,
		PendingRollback: pending,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to write emergency dump")
	} else {
		log.Error().Msgf("Unhandled panic, emergency dump written to %s", path)
	}

	_ = notifier.Notify(context.Background(), record, Context{}, path)
}

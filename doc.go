// Package inkwell is the composition root of the inkwell handheld runtime.
//
// It connects the device domain (documents, the metadata index, the session
// snapshot and the power lifecycle) with its adapters: a storage directory
// standing in for the removable card, an SQLite session store and host
// stand-ins for the display, keyboard, clock and battery.
//
// Features:
//
//   - **Text wrapping**: documents are stored as flat text and shown as lines
//     wrapped to the display width (`pkg/textbuf`).
//   - **Metadata index**: one line per document with size, printable character
//     count and last write time, rewritten atomically (`pkg/index`).
//   - **Power lifecycle**: idle timeout with a grace window, battery supervision
//     with hysteresis, deferred sleep while charging, save before sleep and
//     session restore at boot (`pkg/power`).
//   - **Session store**: settings and the last session in SQLite (`pkg/adapters/sqlite`).
//
// Usage:
//
//	rt, err := inkwell.New("/media/card", inkwell.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	sess, _ := rt.Manager.Boot(ctx)
//	err = rt.Manager.Run(ctx) // returns core.ErrAsleep when the device sleeps
package inkwell

package syncfix

import (
	"fmt"
	"strings"

	"github.com/google/renameio/v2"
)

// FormatRecord renders the key=value status record consumed by the calling
// workflow engine.
func FormatRecord(d Decision) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "sync_status=%s\n", d.Status)
	fmt.Fprintf(&b, "sync_video=%s\n", d.Defective)
	fmt.Fprintf(&b, "offset.seconds=%s\n", d.FormatOffset())
	return []byte(b.String())
}

// WriteRecord atomically replaces path with the status record for d.
func WriteRecord(path string, d Decision) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending status record: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(FormatRecord(d)); err != nil {
		return fmt.Errorf("write status record: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace status record: %w", err)
	}
	return nil
}

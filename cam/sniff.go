package cam

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// SniffArchive checks the leading bytes of an upload before it is handed to
// Ingest. Formats built on ZIP (for example a CAM bundle a browser labelled
// as something else) are accepted. Anything else returns ErrCorruptArchive
// naming the detected type.
func SniffArchive(data []byte) error {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	return fmt.Errorf("%w: not a zip archive (detected %s)", ErrCorruptArchive, detected.String())
}

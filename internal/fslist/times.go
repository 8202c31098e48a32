package fslist

import (
	"errors"
	"fmt"
)

// ErrTimeUnsupported is reported when the platform or filesystem does not
// record a particular timestamp.
var ErrTimeUnsupported = fmt.Errorf("timestamp %w on this platform", errors.ErrUnsupported)

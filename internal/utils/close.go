package utils

import (
	"io"
)

// maxDrain bounds how much of an unread body is discarded before closing.
const maxDrain = 64 << 10

// DrainClose discards the unread part of an HTTP body and closes it, so the
// underlying connection goes back to the pool.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	_ = rc.Close()
}

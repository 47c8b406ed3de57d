package upstream

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// guard runs fn and turns any error or panic into fallback, so nothing
// escapes a facet. Degraded responses are logged at Debug since the retry
// loop already reported them.
func guard[T any](log logger.Logger, op string, fallback T, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered panic in upstream facet",
				logger.String("op", op),
				logger.String("panic", fmt.Sprint(r)))
			out = fallback
		}
	}()

	v, err := fn()
	if err != nil {
		if errors.Is(err, errDegraded) {
			log.Debug("upstream degraded, using fallback", logger.String("op", op))
		} else {
			log.Warn("upstream facet failed, using fallback",
				logger.String("op", op),
				logger.Error(err))
		}
		return fallback
	}
	return v
}

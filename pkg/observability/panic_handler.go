package observability

import (
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with the stack trace.
// It must be called directly in a defer statement:
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "ops server")
//	    ...
//	}()
//
// The panic is not re-raised.
func RecoverPanic(logger logrus.FieldLogger, where string) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
}

// RecoverAsError converts a panic into an error assigned to errp, for
// goroutines whose error is collected by an errgroup:
//
//	g.Go(func() (err error) {
//	    defer observability.RecoverAsError(logger, "api server", &err)
//	    ...
//	})
func RecoverAsError(logger logrus.FieldLogger, where string, errp *error) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
		if errp != nil {
			*errp = fmt.Errorf("panic in %s: %v", where, r)
		}
	}
}

func logPanic(logger logrus.FieldLogger, where string, r interface{}) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"panic":   r,
		"stack":   string(debug.Stack()),
		"context": where,
	}).Error("PANIC recovered")
}

// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helpers for JSON encoding/decoding, the single
// translation of application errors to status codes, id parsing, and the
// middleware every route shares.
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, dto.FromUser(user))
//	httputil.WriteCreated(w, dto.FromStatus(status))
//	httputil.WriteNoContent(w)
//	httputil.WriteText(w, http.StatusOK, token)
//
// Errors from services go through WriteAppError, which picks the status:
//
//	validation      400 (with "fields")
//	unauthenticated 401
//	forbidden       403
//	not found       404
//	conflict        409
//	duplicate       422
//	anything else   500 (message hidden, error logged)
//
// # Request Parsing
//
//	var req dto.NameRequest
//	if !httputil.ParseJSONOrError(w, r, logger, &req) {
//		return // Error response already written
//	}
//
//	id, ok := httputil.ParsePathIDOrError(w, r, logger, "id")
//	statusID, err := httputil.ParseQueryID(r, "taskStatus")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication, ownership and rate limiting middleware
package httputil

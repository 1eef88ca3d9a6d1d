// Package api provides the HTTP REST API server for the taskboard service.
//
// # Overview
//
// The API exposes users, task statuses, labels and tasks as JSON resources
// under a configurable base URL, plus a token login endpoint. It is built on
// gorilla/mux and organized into handler groups that each register their own
// routes:
//
//   - AuthHandlers: POST /login, rate limited per client IP
//   - UserHandlers: registration, listing, self-only update and delete
//   - NamedHandlers: CRUD for statuses and labels
//   - TaskHandlers: CRUD and filtered listing; delete is author-only
//
// # Usage
//
//	server := api.NewServer(api.Config{BaseURL: "/api"}, api.Services{
//		Users:         users,
//		Authenticator: authenticator,
//		Statuses:      statuses,
//		Labels:        labels,
//		Tasks:         tasks,
//	}, limiter, metrics, logger)
//	http.ListenAndServe(":8080", server)
//
// # API Endpoints
//
// Routes are relative to the base URL except /welcome.
//
//	GET    /welcome
//	POST   /login                 token as text/plain and in the Authorization header
//	GET    /users                 no token required
//	POST   /users                 no token required
//	GET    /users/{id}
//	PUT    /users/{id}            caller must be {id}
//	DELETE /users/{id}            caller must be {id}
//	GET    /statuses, /labels
//	POST   /statuses, /labels
//	GET    /statuses/{id}, /labels/{id}
//	PUT    /statuses/{id}, /labels/{id}
//	DELETE /statuses/{id}, /labels/{id}
//	GET    /tasks?taskStatus=&executorId=&labelsId=&authorId=
//	POST   /tasks                 author is the caller
//	GET    /tasks/{id}
//	PUT    /tasks/{id}
//	DELETE /tasks/{id}            caller must be the author
//
// # Errors
//
// Handlers never pick status codes for failures themselves; every error goes
// through httputil.WriteAppError:
//
//	400 validation   {"error": "...", "fields": {"email": "Invalid email format"}}
//	401 bad credentials or token
//	403 not the owner
//	404 unknown id, including unknown ids referenced from a task body
//	409 delete blocked by a task referencing the record
//	422 duplicate email or name
//
// # Related Packages
//
//   - pkg/service: use cases called by the handlers
//   - pkg/dto: request and response bodies
//   - pkg/validation: request validation
//   - pkg/middleware: authentication, ownership and rate limiting
package api

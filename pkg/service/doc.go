// Package service implements the task tracker's use cases on top of the
// store: account management and login, status and label administration, and
// task tracking with resolved relations.
//
// Services take validated inputs and return models or errors from
// pkg/apperrors; they never see HTTP types. Multi-step writes (uniqueness
// pre-check, reference checks, insert, label rows) run in one transaction via
// store.Store.InTx, and the schema's UNIQUE constraints close the race between
// pre-check and insert.
//
// The caller identity is passed explicitly where it matters:
//
//	details, err := tasks.Create(ctx, identity, service.TaskInput{
//		Name:     "Write docs",
//		StatusID: todo.ID,
//		LabelIDs: []int64{docs.ID},
//	})
package service

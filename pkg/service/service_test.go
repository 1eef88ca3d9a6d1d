package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServices struct {
	store    *store.Store
	users    *UserService
	auth     *Authenticator
	statuses *StatusService
	labels   *LabelService
	tasks    *TaskService
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fastHasher keeps argon2 cheap in tests
func fastHasher() *auth.PasswordHasher {
	params := auth.DefaultArgon2Params()
	params.Memory = 1024
	params.Iterations = 1
	return auth.NewPasswordHasher(params)
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.ConnectionConfig{Dialect: store.SQLite, URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.RunMigrations(ctx, db, store.SQLite, nil))

	st := store.New(db, store.SQLite)
	logger := testLogger()
	hasher := fastHasher()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	users := NewUserService(st, hasher, CacheConfig{Size: 16, TTL: time.Minute}, nil, logger)
	return &testServices{
		store:    st,
		users:    users,
		auth:     NewAuthenticator(users, hasher, tokens, nil, logger),
		statuses: NewStatusService(st, nil, logger),
		labels:   NewLabelService(st, nil, logger),
		tasks:    NewTaskService(st, nil, logger),
	}
}

func (s *testServices) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := s.users.Create(context.Background(), UserInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "secret",
	})
	require.NoError(t, err)
	return user
}

func identityOf(u *models.User) *auth.Identity {
	return &auth.Identity{UserID: u.ID, Email: u.Email}
}

func strPtr(s string) *string { return &s }
func idPtr(id int64) *int64   { return &id }

func TestUserService_CreateHashesPassword(t *testing.T) {
	s := newTestServices(t)
	user := s.register(t, "a@x.com")

	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.Contains(t, user.PasswordHash, "$argon2id$")

	_, err := s.users.Create(context.Background(), UserInput{Email: "a@x.com", Password: "other"})
	assert.True(t, apperrors.IsDuplicate(err))
}

func TestUserService_Update(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := s.register(t, "a@x.com")
	s.register(t, "b@x.com")

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := s.users.Update(ctx, a.ID, UserPatch{FirstName: strPtr("Grace")})
		require.NoError(t, err)
		assert.Equal(t, "Grace", updated.FirstName)
		assert.Equal(t, "Lovelace", updated.LastName)
		assert.Equal(t, a.PasswordHash, updated.PasswordHash)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		_, err := s.users.Update(ctx, a.ID, UserPatch{Email: strPtr("b@x.com")})
		assert.True(t, apperrors.IsDuplicate(err))
	})

	t.Run("password is re-hashed", func(t *testing.T) {
		_, err := s.users.Update(ctx, a.ID, UserPatch{Password: strPtr("changed")})
		require.NoError(t, err)

		_, _, err = s.auth.Login(ctx, "a@x.com", "secret")
		assert.True(t, apperrors.IsUnauthenticated(err))
		_, _, err = s.auth.Login(ctx, "a@x.com", "changed")
		assert.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.users.Update(ctx, 999, UserPatch{FirstName: strPtr("x")})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestUserService_FindByEmailCacheInvalidation(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := s.register(t, "a@x.com")

	first, err := s.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	first.FirstName = "mutated"

	second, err := s.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", second.FirstName, "cache must hand out copies")

	_, err = s.users.Update(ctx, a.ID, UserPatch{Email: strPtr("new@x.com")})
	require.NoError(t, err)

	_, err = s.users.FindByEmail(ctx, "a@x.com")
	assert.True(t, apperrors.IsNotFound(err))

	found, err := s.users.FindByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
}

func TestAuthenticator_Login(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	user := s.register(t, "a@x.com")

	token, got, err := s.auth.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)

	identity, err := s.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "a@x.com", identity.Email)

	_, _, wrongPassword := s.auth.Login(ctx, "a@x.com", "nope")
	_, _, unknownEmail := s.auth.Login(ctx, "nobody@x.com", "secret")
	assert.True(t, apperrors.IsUnauthenticated(wrongPassword))
	assert.True(t, apperrors.IsUnauthenticated(unknownEmail))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticator_Authenticate(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	user := s.register(t, "a@x.com")

	token, _, err := s.auth.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)

	_, err = s.auth.Authenticate(ctx, "garbage")
	assert.True(t, apperrors.IsUnauthenticated(err))

	require.NoError(t, s.users.Delete(ctx, user.ID))
	_, err = s.auth.Authenticate(ctx, token)
	assert.True(t, apperrors.IsUnauthenticated(err), "token of a deleted user is rejected")
}

func TestNamedService(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	todo, err := s.statuses.Create(ctx, "todo")
	require.NoError(t, err)

	_, err = s.statuses.Create(ctx, "todo")
	assert.True(t, apperrors.IsDuplicate(err))

	done, err := s.statuses.Create(ctx, "done")
	require.NoError(t, err)

	_, err = s.statuses.Update(ctx, done.ID, "todo")
	assert.True(t, apperrors.IsDuplicate(err))

	renamed, err := s.statuses.Update(ctx, todo.ID, "todo")
	require.NoError(t, err, "renaming to its own name is allowed")
	assert.Equal(t, "todo", renamed.Name)

	_, err = s.statuses.Update(ctx, 999, "x")
	assert.True(t, apperrors.IsNotFound(err))

	all, err := s.statuses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.statuses.Delete(ctx, done.ID))
	assert.True(t, apperrors.IsNotFound(s.statuses.Delete(ctx, done.ID)))

	label, err := s.labels.Create(ctx, "bug")
	require.NoError(t, err)
	got, err := s.labels.Get(ctx, label.ID)
	require.NoError(t, err)
	assert.Equal(t, "bug", got.Name)
}

func TestTaskService_CreateAndResolve(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	author := s.register(t, "a@x.com")
	executor := s.register(t, "b@x.com")
	todo, _ := s.statuses.Create(ctx, "todo")
	bug, _ := s.labels.Create(ctx, "bug")
	ui, _ := s.labels.Create(ctx, "ui")

	details, err := s.tasks.Create(ctx, identityOf(author), TaskInput{
		Name:       "t1",
		StatusID:   todo.ID,
		ExecutorID: idPtr(executor.ID),
		LabelIDs:   []int64{ui.ID, bug.ID, bug.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, author.ID, details.Author.ID)
	assert.Equal(t, executor.ID, details.Executor.ID)
	assert.Equal(t, "todo", details.Status.Name)
	require.Len(t, details.Labels, 2)
	assert.Equal(t, bug.ID, details.Labels[0].ID)
	assert.Equal(t, ui.ID, details.Labels[1].ID)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := s.tasks.Create(ctx, identityOf(author), TaskInput{Name: "t1", StatusID: todo.ID})
		assert.True(t, apperrors.IsDuplicate(err))
	})

	t.Run("missing references", func(t *testing.T) {
		_, err := s.tasks.Create(ctx, identityOf(author), TaskInput{Name: "t2", StatusID: 999})
		assert.True(t, apperrors.IsNotFound(err))

		_, err = s.tasks.Create(ctx, identityOf(author), TaskInput{Name: "t2", StatusID: todo.ID, ExecutorID: idPtr(999)})
		assert.True(t, apperrors.IsNotFound(err))

		_, err = s.tasks.Create(ctx, identityOf(author), TaskInput{Name: "t2", StatusID: todo.ID, LabelIDs: []int64{999}})
		assert.True(t, apperrors.IsNotFound(err))

		all, err := s.tasks.List(ctx, models.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1, "failed creates leave nothing behind")
	})

	t.Run("no caller", func(t *testing.T) {
		_, err := s.tasks.Create(ctx, nil, TaskInput{Name: "t3", StatusID: todo.ID})
		assert.True(t, apperrors.IsUnauthenticated(err))
	})
}

func TestTaskService_Update(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	author := s.register(t, "a@x.com")
	executor := s.register(t, "b@x.com")
	todo, _ := s.statuses.Create(ctx, "todo")
	done, _ := s.statuses.Create(ctx, "done")
	bug, _ := s.labels.Create(ctx, "bug")
	ui, _ := s.labels.Create(ctx, "ui")

	created, err := s.tasks.Create(ctx, identityOf(author), TaskInput{
		Name:        "t1",
		Description: "first",
		StatusID:    todo.ID,
		ExecutorID:  idPtr(executor.ID),
		LabelIDs:    []int64{bug.ID},
	})
	require.NoError(t, err)
	id := created.Task.ID

	t.Run("status only", func(t *testing.T) {
		updated, err := s.tasks.Update(ctx, id, TaskPatch{StatusID: idPtr(done.ID)})
		require.NoError(t, err)
		assert.Equal(t, "done", updated.Status.Name)
		assert.Equal(t, "first", updated.Task.Description)
		require.NotNil(t, updated.Executor)
		require.Len(t, updated.Labels, 1)
	})

	t.Run("labels replaced", func(t *testing.T) {
		updated, err := s.tasks.Update(ctx, id, TaskPatch{LabelIDs: []int64{ui.ID}})
		require.NoError(t, err)
		require.Len(t, updated.Labels, 1)
		assert.Equal(t, ui.ID, updated.Labels[0].ID)
	})

	t.Run("labels cleared", func(t *testing.T) {
		updated, err := s.tasks.Update(ctx, id, TaskPatch{LabelIDs: []int64{}})
		require.NoError(t, err)
		assert.Empty(t, updated.Labels)
	})

	t.Run("executor unassigned", func(t *testing.T) {
		updated, err := s.tasks.Update(ctx, id, TaskPatch{ExecutorSet: true})
		require.NoError(t, err)
		assert.Nil(t, updated.Executor)
		assert.Nil(t, updated.Task.ExecutorID)
	})

	t.Run("missing status rolls back", func(t *testing.T) {
		_, err := s.tasks.Update(ctx, id, TaskPatch{Name: strPtr("renamed"), StatusID: idPtr(999)})
		assert.True(t, apperrors.IsNotFound(err))

		got, err := s.tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "t1", got.Task.Name)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := s.tasks.Update(ctx, 999, TaskPatch{})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestReferenceGuards(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	author := s.register(t, "a@x.com")
	todo, _ := s.statuses.Create(ctx, "todo")
	bug, _ := s.labels.Create(ctx, "bug")

	created, err := s.tasks.Create(ctx, identityOf(author), TaskInput{
		Name:     "t1",
		StatusID: todo.ID,
		LabelIDs: []int64{bug.ID},
	})
	require.NoError(t, err)

	assert.True(t, apperrors.IsConflict(s.statuses.Delete(ctx, todo.ID)))
	assert.True(t, apperrors.IsConflict(s.labels.Delete(ctx, bug.ID)))
	assert.True(t, apperrors.IsConflict(s.users.Delete(ctx, author.ID)))

	authorID, err := s.tasks.AuthorOf(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, authorID)

	require.NoError(t, s.tasks.Delete(ctx, created.Task.ID))
	assert.True(t, apperrors.IsNotFound(s.tasks.Delete(ctx, created.Task.ID)))

	assert.NoError(t, s.statuses.Delete(ctx, todo.ID))
	assert.NoError(t, s.labels.Delete(ctx, bug.ID))
	assert.NoError(t, s.users.Delete(ctx, author.ID))
}

func TestTaskService_ListFilters(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := s.register(t, "a@x.com")
	b := s.register(t, "b@x.com")
	todo, _ := s.statuses.Create(ctx, "todo")
	done, _ := s.statuses.Create(ctx, "done")
	bug, _ := s.labels.Create(ctx, "bug")

	_, err := s.tasks.Create(ctx, identityOf(a), TaskInput{Name: "t1", StatusID: todo.ID, LabelIDs: []int64{bug.ID}})
	require.NoError(t, err)
	_, err = s.tasks.Create(ctx, identityOf(b), TaskInput{Name: "t2", StatusID: done.ID, ExecutorID: idPtr(a.ID)})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter models.TaskFilter
		want   []string
	}{
		{"no filter", models.TaskFilter{}, []string{"t1", "t2"}},
		{"by status", models.TaskFilter{StatusID: idPtr(done.ID)}, []string{"t2"}},
		{"by label", models.TaskFilter{LabelID: idPtr(bug.ID)}, []string{"t1"}},
		{"by executor", models.TaskFilter{ExecutorID: idPtr(a.ID)}, []string{"t2"}},
		{"by author", models.TaskFilter{AuthorID: idPtr(a.ID)}, []string{"t1"}},
		{"combined", models.TaskFilter{AuthorID: idPtr(a.ID), StatusID: idPtr(done.ID)}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, err := s.tasks.List(ctx, tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(details))
			for _, d := range details {
				names = append(names, d.Task.Name)
				assert.NotNil(t, d.Status)
				assert.NotNil(t, d.Author)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

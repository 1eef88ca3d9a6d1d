package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/models"
)

func TestOptionalID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSet bool
		wantID  *int64
	}{
		{"absent", `{}`, false, nil},
		{"null", `{"executorId": null}`, true, nil},
		{"value", `{"executorId": 7}`, true, func() *int64 { v := int64(7); return &v }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.wantSet, req.ExecutorID.Set)
			assert.Equal(t, tt.wantID, req.ExecutorID.Value)
		})
	}

	var req TaskRequest
	assert.Error(t, json.Unmarshal([]byte(`{"executorId": "x"}`), &req))
}

func TestTaskRequest_LabelIDsPresence(t *testing.T) {
	var absent, empty TaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"t"}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"labelIds":[]}`), &empty))

	assert.Nil(t, ToTaskPatch(absent).LabelIDs)
	assert.NotNil(t, ToTaskPatch(empty).LabelIDs)
	assert.Empty(t, ToTaskPatch(empty).LabelIDs)
}

func TestToTaskPatch(t *testing.T) {
	var req TaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"taskStatusId": 2, "executorId": null, "authorId": 99}`), &req))

	patch := ToTaskPatch(req)
	require.NotNil(t, patch.StatusID)
	assert.Equal(t, int64(2), *patch.StatusID)
	assert.True(t, patch.ExecutorSet)
	assert.Nil(t, patch.ExecutorID)
	assert.Nil(t, patch.Name)
}

func TestFromUser_OmitsPassword(t *testing.T) {
	u := &models.User{ID: 1, FirstName: "Ada", Email: "a@x.com", PasswordHash: "$argon2id$secret"}

	body, err := json.Marshal(FromUser(u))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "argon2id")
	assert.Contains(t, string(body), `"firstName":"Ada"`)
}

func TestFromTaskDetails(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &models.TaskDetails{
		Task:   &models.Task{ID: 3, Name: "t1", CreatedAt: now},
		Status: &models.Status{ID: 1, Name: "todo"},
		Author: &models.User{ID: 2, Email: "a@x.com"},
		Labels: []*models.Label{{ID: 5, Name: "bug"}},
	}

	out := FromTaskDetails(d)
	assert.Equal(t, "todo", out.TaskStatus.Name)
	assert.Equal(t, int64(2), out.Author.ID)
	assert.Nil(t, out.Executor)
	require.Len(t, out.Labels, 1)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"executor":null`)
	assert.Contains(t, string(body), `"taskStatus":{"id":1`)
}

package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTableJob(t *testing.T) {
	f := newTableFixture(t, report("A"))
	f.source.texts[report("A").Name] = reportText
	job := NewRefreshTableJob(f.table, nil)

	assert.Equal(t, JobTypeTableRefresh, job.Type())
	require.NoError(t, job.Handle(context.Background(), json.RawMessage(`{"requested_by":"api"}`)))
	assert.Equal(t, 1, f.store.saves)
}

func TestRefreshTableJob_InProgressIsNotAnError(t *testing.T) {
	f := newTableFixture(t)
	f.store.owner = "other"
	job := NewRefreshTableJob(f.table, nil)

	assert.NoError(t, job.Handle(context.Background(), nil))
	assert.Equal(t, 0, f.store.saves)
}

func TestRefreshTableJob_BadPayload(t *testing.T) {
	f := newTableFixture(t)
	job := NewRefreshTableJob(f.table, nil)
	assert.Error(t, job.Handle(context.Background(), json.RawMessage(`[`)))
}

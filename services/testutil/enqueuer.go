package testutil

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
)

// FakeEnqueuer records tasks instead of talking to redis. Err, when set, is
// returned from every Enqueue call.
type FakeEnqueuer struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (f *FakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Tasks = append(f.Tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (f *FakeEnqueuer) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Tasks)
}

// Decode unmarshals the payload of the i-th recorded task into out.
func (f *FakeEnqueuer) Decode(t *testing.T, i int, out any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.Tasks) {
		t.Fatalf("task %d not enqueued (have %d)", i, len(f.Tasks))
	}
	if err := json.Unmarshal(f.Tasks[i].Payload(), out); err != nil {
		t.Fatalf("decode task payload: %v", err)
	}
}

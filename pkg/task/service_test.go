package task

import (
	"encoding/json"
	"testing"

	"fincheck-controlplane/pkg/taskname"

	"github.com/stretchr/testify/require"
)

func TestNewJSONTask(t *testing.T) {
	task, err := NewJSONTask(taskname.NotificationDispatch, map[string]string{"type": "commission_earned"})
	require.NoError(t, err)
	require.Equal(t, taskname.NotificationDispatch, task.Type())

	var got map[string]string
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	require.Equal(t, "commission_earned", got["type"])
}

func TestNewJSONTaskRejectsUnmarshalable(t *testing.T) {
	_, err := NewJSONTask(taskname.NotificationDispatch, make(chan int))
	require.Error(t, err)
}

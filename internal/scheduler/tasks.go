package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSearchIndexRefresh = "search.index.refresh"

const TaskSearchReindex = "search.reindex"

type IndexRefreshPayload struct {
	ProductID string `json:"productId"`
}

func NewIndexRefreshTask(payload IndexRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSearchIndexRefresh, data), nil
}

func ParseIndexRefreshPayload(task *asynq.Task) (IndexRefreshPayload, error) {
	var payload IndexRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IndexRefreshPayload{}, err
	}
	return payload, nil
}

func NewReindexTask() *asynq.Task {
	return asynq.NewTask(TaskSearchReindex, nil)
}

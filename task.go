package cari

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ambiyansyah-risyal/cari/internal/backoff"
)

var taskPollPolicy = backoff.Policy{
	Initial:    200 * time.Millisecond,
	Max:        10 * time.Second,
	Multiplier: 2,
	Jitter:     0.1,
}

// TaskID extracts the taskID of a write response.
func TaskID(res Record) (int64, bool) {
	switch v := res["taskID"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// WaitTask blocks until the server reports the task as published, ctx is
// done, or the client's task wait timeout elapses (ErrTaskTimeout).
// Concurrent waiters on the same task share one polling loop, which keeps
// running until the task is published or the timeout elapses even when every
// waiter gave up.
func (i *Index) WaitTask(ctx context.Context, taskID int64) error {
	key := i.name + "/" + strconv.FormatInt(taskID, 10)
	ch := i.client.tasks.DoChan(key, func() (any, error) {
		return nil, i.pollTask(taskID)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Index) pollTask(taskID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), i.client.taskWaitTimeout)
	defer cancel()

	op := readOp(http.MethodGet, i.path("task", strconv.FormatInt(taskID, 10)), nil)
	for n := 0; ; n++ {
		res, err := i.client.Do(ctx, op)
		switch {
		case err != nil && ctx.Err() != nil:
			return fmt.Errorf("%w: task %d", ErrTaskTimeout, taskID)
		case err != nil:
			return err
		}
		if status, _ := res["status"].(string); status == "published" {
			return nil
		}
		if !backoff.Wait(ctx.Done(), taskPollPolicy.Delay(n)) {
			return fmt.Errorf("%w: task %d", ErrTaskTimeout, taskID)
		}
	}
}

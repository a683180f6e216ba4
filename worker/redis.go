package worker

import (
	"adicare.it/ace/tasks"
	"fmt"
)

type redisTransactions interface {
	getNoteTask(redisKey string) (*tasks.NoteTask, error)
	onTaskStarted(task *Task) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Notes.Update(task.redisKey, func(noteTask *tasks.NoteTask) {
		noteTask.Extraction.Status = tasks.TaskStatusStarted
		noteTask.Extraction.Attempts += 1
		noteTask.Extraction.StartedAt = getFormattedNow()
		noteTask.Extraction.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	return wrapper.tasksClient.Notes.Update(task.redisKey, func(noteTask *tasks.NoteTask) {
		noteTask.Extraction.Status = tasks.TaskStatusCompletedFailure
		noteTask.Extraction.StartedAt = getFormattedNow()
		noteTask.Extraction.CompletedAt = getFormattedNow()
		noteTask.Extraction.Attempts += 1
		noteTask.Extraction.ErrorMessages = append(
			noteTask.Extraction.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				noteTask.Extraction.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Notes.Update(task.redisKey, func(noteTask *tasks.NoteTask) {
		noteTask.Extraction.Status = tasks.TaskStatusFailed
		noteTask.Extraction.CompletedAt = getFormattedNow()
		noteTask.Extraction.ErrorMessages = append(noteTask.Extraction.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Notes.Update(task.redisKey, func(noteTask *tasks.NoteTask) {
		if !noteTask.Extraction.Status.Complete() {
			noteTask.Extraction.Status = tasks.TaskStatusCompletedSuccess
		}
		noteTask.Extraction.CompletedAt = getFormattedNow()
		noteTask.Extraction.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getNoteTask(redisKey string) (*tasks.NoteTask, error) {
	return wrapper.tasksClient.Notes.Get(redisKey)
}

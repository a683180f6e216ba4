package worker

import (
	"adicare.it/ace/tasks"
	"adicare.it/ace/utils"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	noteTask  *tasks.NoteTask
	message   *Message
	redisKey  string
	aceLogger *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.aceLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.aceLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.notifyResults(task, *task.message); err != nil {
		task.aceLogger.Err(err).Msg("Got error while sending message to results queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.aceLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.aceLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	noteTask, err := worker.redis.getNoteTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query note task for message, got error %w", err)
	}
	taskLogger := worker.aceLogger.With().Str("tid", message.RedisKey).Logger()
	task := Task{
		delivery:  delivery,
		noteTask:  noteTask,
		redisKey:  message.RedisKey,
		message:   &message,
		aceLogger: &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.aceLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.aceLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update NoteTaskInfo: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.aceLogger.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.aceLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.aceLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.aceLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.noteTask.Extraction.Attempts)
	data, err := worker.s3.getNoteText(task)
	if err != nil {
		task.aceLogger.Err(err).Caller().Msg("Could not fetch note text from s3")
		return fmt.Errorf("failed fetch data from s3: %w", err)
	}
	rec, err := worker.ppln.Extract(task.noteTask.NoteID, string(data))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	result, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	task.aceLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(task, string(result)); err != nil {
		task.aceLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.noteTask.Extraction
	taskLogger := task.aceLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done (might indicate issue acking message with RMQ)")
		return false, nil
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Extraction task has exceeded retries")
		err := worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}

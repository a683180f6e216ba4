package tasks

import (
	"adicare.it/ace/redis"
)

type Client struct {
	Notes     NoteTasks
	Responses ResponseCache
}

// NewClient is the preferred way of working with note task state.
func NewClient() (Client, error) {
	notesRedisClient, err := redis.NewClient(NotesDB)
	if err != nil {
		return Client{}, err
	}
	responsesRedisClient, err := redis.NewClient(ResponsesDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Notes:     NoteTasks{client: notesRedisClient},
		Responses: ResponseCache{client: responsesRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Notes.client.Close()
	_ = client.Responses.client.Close()
}

package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
)

// NewPubSub creates the Google Pub/Sub client for post lifecycle events.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

type PostEventPublisher struct {
	client *pubsub.Client
	topic  string
}

func NewPostEventPublisher(client *pubsub.Client, topic string) *PostEventPublisher {
	return &PostEventPublisher{client: client, topic: topic}
}

func (p *PostEventPublisher) PublishPostEvent(ctx context.Context, evt *model.PostEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := p.client.CreateTopic(ctx, p.topic); err != nil {
			return err
		}
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("post_id", evt.PostID).Debug("Post event published")
	return nil
}

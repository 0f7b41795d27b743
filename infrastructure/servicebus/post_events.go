package servicebus

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
)

// NewServiceBus creates the Azure Service Bus client used as an alternate
// post-event bus in Azure deployments.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type PostEventPublisher struct {
	client *azservicebus.Client
	queue  string
}

func NewPostEventPublisher(client *azservicebus.Client, queue string) *PostEventPublisher {
	return &PostEventPublisher{client: client, queue: queue}
}

func (p *PostEventPublisher) PublishPostEvent(ctx context.Context, evt *model.PostEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making service bus sender")
		return err
	}
	defer func() {
		if cerr := sender.Close(context.Background()); cerr != nil {
			logger.GetLogger().WithField("error", cerr).Error("Error while closing service bus sender")
		}
	}()
	return sender.SendMessage(ctx, &azservicebus.Message{Body: payload}, nil)
}

package consumers

import (
	"context"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/service"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/logger"
	"github.com/medflow/stockcheck-backend/pkg/messaging"
)

// QueueUserEvents is the queue this service reads user events from
const QueueUserEvents = "stockcheck-service.user-events"

// UserEventConsumer keeps the local user cache in sync with the user service
type UserEventConsumer struct {
	consumer *messaging.Consumer
	users    service.UserCacheStore
	logger   *logger.Logger
}

// NewUserEventConsumer creates a new user event consumer
func NewUserEventConsumer(rmq *messaging.RabbitMQ, users service.UserCacheStore, log *logger.Logger) (*UserEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueUserEvents, log)
	if err != nil {
		return nil, err
	}

	// Subscribe to user events
	if err := consumer.Subscribe(messaging.ExchangeUserEvents, "user.#"); err != nil {
		return nil, err
	}

	c := newUserEventConsumer(users, log)
	c.consumer = consumer
	c.register(consumer)

	return c, nil
}

func newUserEventConsumer(users service.UserCacheStore, log *logger.Logger) *UserEventConsumer {
	return &UserEventConsumer{
		users:  users,
		logger: log.WithComponent("user_consumer"),
	}
}

func (c *UserEventConsumer) register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.EventUserCreated, c.handleUserCreated)
	consumer.RegisterHandler(messaging.EventUserUpdated, c.handleUserUpdated)
	consumer.RegisterHandler(messaging.EventUserDeleted, c.handleUserDeleted)
	consumer.RegisterHandler(messaging.EventUserRoleChanged, c.handleUserRoleChanged)
}

// Start starts consuming messages
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *UserEventConsumer) handleUserCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Str("name", data.FullName()).
		Msg("received user created event")

	return c.users.Upsert(ctx, &actor.UserCache{
		UserID:    data.UserID,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		RoleName:  data.RoleName,
	})
}

func (c *UserEventConsumer) handleUserUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user updated event")

	existing, err := c.users.Get(ctx, data.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	// Fields carries {"field": {"from": old, "to": new}} per changed field
	for field, target := range map[string]*string{
		"first_name": &existing.FirstName,
		"last_name":  &existing.LastName,
		"email":      &existing.Email,
		"role_name":  &existing.RoleName,
	} {
		if change, ok := data.Fields[field].(map[string]interface{}); ok {
			if to, ok := change["to"].(string); ok {
				*target = to
			}
		}
	}

	return c.users.Upsert(ctx, existing)
}

func (c *UserEventConsumer) handleUserRoleChanged(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserRoleChangedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	existing, err := c.users.Get(ctx, data.UserID)
	if err != nil || existing == nil {
		return err
	}

	existing.RoleName = data.NewRoleName
	return c.users.Upsert(ctx, existing)
}

func (c *UserEventConsumer) handleUserDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user deleted event")

	return c.users.Delete(ctx, data.UserID)
}

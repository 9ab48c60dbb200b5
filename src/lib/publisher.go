package lib

import (
	"context"
	"errors"
	"log"
)

// EventPublisher emits booking lifecycle events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// MultiPublisher fans an event out to every inner publisher and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, topic string, payload any) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, topic, payload); err != nil {
			log.Printf("[Publisher] error publishing %s: %s\n", topic, err.Error())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

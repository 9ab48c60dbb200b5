package lib

import (
	"context"
	"log"
	"os"

	"github.com/pusher/pusher-http-go/v5"
)

const AdminBookingsChannel = "admin-bookings"

var pusherClient *pusher.Client

func GetPusherClient() *pusher.Client {
	if pusherClient != nil {
		return pusherClient
	}
	if os.Getenv("PUSHER_APP_ID") == "" {
		return nil
	}
	pusherClient = &pusher.Client{
		AppID:   os.Getenv("PUSHER_APP_ID"),
		Key:     os.Getenv("PUSHER_KEY"),
		Secret:  os.Getenv("PUSHER_SECRET"),
		Cluster: os.Getenv("PUSHER_CLUSTER"),
		Secure:  true,
	}
	return pusherClient
}

// PusherTrigger is the part of the pusher client the dashboard feed needs.
type PusherTrigger interface {
	Trigger(channel string, eventName string, data interface{}) error
}

// AdminFeed pushes booking events to the live admin dashboard.
type AdminFeed struct {
	Client PusherTrigger
}

func (a *AdminFeed) Publish(ctx context.Context, topic string, payload any) error {
	if err := a.Client.Trigger(AdminBookingsChannel, topic, payload); err != nil {
		log.Printf("[Pusher] error triggering %s: %s\n", topic, err.Error())
		return err
	}
	return nil
}

package services

import (
	"fmt"

	appcfg "couples-workout-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushService sends APNs notifications to registered devices. Pushes are
// best effort: failures are logged and never surfaced to the caller.
type PushService struct {
	client *apns2.Client
	topic  string
}

// NewPushService creates a push service from APNs token credentials. When no
// key path is configured the service is returned disabled and every send is
// a no-op.
func NewPushService(cfg appcfg.APNSConfig) (*PushService, error) {
	if cfg.KeyPath == "" {
		return &PushService{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	t := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	client := apns2.NewTokenClient(t)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushService{client: client, topic: cfg.Topic}, nil
}

// Enabled reports whether APNs credentials are configured
func (s *PushService) Enabled() bool {
	return s.client != nil
}

// NotifyPartnerJoined pushes a pairing notification to the owner's device
func (s *PushService) NotifyPartnerJoined(deviceToken, partnerName string) {
	s.send(deviceToken, "Partner joined",
		fmt.Sprintf("%s joined your couple", partnerName))
}

// NotifySnapshotShared pushes a progress notification to the viewer's device
func (s *PushService) NotifySnapshotShared(deviceToken, ownerName string) {
	s.send(deviceToken, "New progress update",
		fmt.Sprintf("%s shared a progress snapshot", ownerName))
}

func (s *PushService) send(deviceToken, title, body string) {
	if !s.Enabled() || deviceToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}

	res, err := s.client.Push(notification)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send push notification")
		return
	}
	if !res.Sent() {
		log.Warn().Str("reason", res.Reason).Int("status", res.StatusCode).Msg("Push notification rejected")
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// Envelope is the wire form of an event
type Envelope struct {
	Type      model.EventType `json:"type"`
	SessionID model.SessionID `json:"session_id,omitempty"`
	PlayerID  model.PlayerID  `json:"player_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   any             `json:"payload,omitempty"`
}

// Encode renders an event as a hub message
func Encode(event model.Event) (Message, error) {
	data, err := json.Marshal(Envelope{
		Type:      event.Type,
		SessionID: event.SessionID,
		PlayerID:  event.PlayerID,
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{Event: string(event.Type), Data: data}, nil
}

// Broadcaster publishes events to the hubs of their topics
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "broadcaster")),
	}
}

// Publish delivers an event to its session's subscribers. Match
// announcements go to each matched player's own stream as well.
func (b *Broadcaster) Publish(ctx context.Context, event model.Event) {
	msg, err := Encode(event)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("session_id", string(event.SessionID)),
			slog.String("error", err.Error()))
		return
	}

	topics := []Topic{SessionTopic(event.SessionID)}
	if payload, ok := event.Payload.(model.MatchFoundPayload); ok {
		for _, id := range payload.Players {
			topics = append(topics, PlayerTopic(id))
		}
	}

	for _, topic := range topics {
		if hub := b.hubManager.GetHub(topic); hub != nil {
			hub.Broadcast(msg)
		}
	}
}

package realtime

import "encoding/json"

const (
	EventPlayerJoin     = "player:join"
	EventPlayerUpdate   = "player:update"
	EventPlayerLeave    = "player:leave"
	EventPlayersRequest = "players:request"
	EventPlayersSync    = "players:sync"
	EventPlayerJoined   = "player:joined"
	EventPlayerUpdated  = "player:updated"
	EventPlayerLeft     = "player:left"
	EventChatMessage    = "chat:message"
	EventError          = "error"
)

// Message is routed by the hub. An empty Channel means every connection;
// otherwise Channel is the player id of the single recipient.
type Message struct {
	Channel string          `json:"channel,omitempty"`
	Exclude string          `json:"exclude,omitempty"`
	Origin  string          `json:"origin,omitempty"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Frame is what travels over the websocket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals data into a message for channel.
func NewMessage(channel, event string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Channel: channel, Event: event, Data: raw}, nil
}

func encodeFrame(event string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

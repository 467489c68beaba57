package dto

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Server side frame names. Domain events use their own names.
const (
	ConnectionEstablished   = "connection.established"
	SubscriptionSucceeded   = "subscription.succeeded"
	SubscriptionError       = "subscription.error"
	UnsubscriptionSucceeded = "unsubscription.succeeded"
	FrameError              = "error"
	Pong                    = "pong"
)

// ClientFrame is what a websocket client sends.
type ClientFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// ServerFrame is every control frame the gateway writes.
type ServerFrame struct {
	Event   string      `json:"event"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ConnectionData struct {
	SocketID string `json:"socket_id"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type ChannelAuthRequest struct {
	Channel string `json:"channel" binding:"required"`
}

type ChannelAuthResponse struct {
	Channel    string `json:"channel"`
	Authorized bool   `json:"authorized"`
}

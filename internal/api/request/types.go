package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// EnqueueRequest is the request body for joining the matchmaking queue
type EnqueueRequest struct {
	Mode string `json:"mode"`
}

// PresenceRequest is the request body for changing presence
type PresenceRequest struct {
	Status string `json:"status"`
}

// CreateSessionRequest is the request body for starting a game against the AI
type CreateSessionRequest struct {
	Mode string `json:"mode"`
}

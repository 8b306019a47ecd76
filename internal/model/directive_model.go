package model

import "encoding/json"

const (
	DirectiveTypeConfigUpdate = "CONFIG_UPDATE"

	directiveChannelPrefix = "directive:"
)

// Directive tells a connected driver how often to report its position.
type Directive struct {
	Type    string           `json:"type"`
	Payload DirectivePayload `json:"payload"`
}

type DirectivePayload struct {
	LocationIntervalMs int64 `json:"locationIntervalMs"`
}

func NewConfigUpdate(intervalMs int64) Directive {
	return Directive{
		Type:    DirectiveTypeConfigUpdate,
		Payload: DirectivePayload{LocationIntervalMs: intervalMs},
	}
}

func (d Directive) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// DirectiveChannel is the pub/sub channel a driver's session listens on.
func DirectiveChannel(driverID string) string {
	return directiveChannelPrefix + driverID
}

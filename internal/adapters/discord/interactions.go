package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
)

// Interaction types and callback types used by the approval flow.
const (
	InteractionPing        = 1
	InteractionComponent   = 3
	CallbackPong           = 1
	CallbackChannelMessage = 4
	FlagEphemeral          = 64
)

type Interaction struct {
	Type int `json:"type"`
	Data struct {
		CustomID string `json:"custom_id"`
	} `json:"data"`
}

type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

type InteractionResponseData struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

func ParseInteraction(body []byte) (Interaction, error) {
	var in Interaction
	err := json.Unmarshal(body, &in)
	return in, err
}

func Pong() InteractionResponse { return InteractionResponse{Type: CallbackPong} }

// Ephemeral answers a button press with a message only the clicker sees.
func Ephemeral(content string) InteractionResponse {
	return InteractionResponse{
		Type: CallbackChannelMessage,
		Data: &InteractionResponseData{Content: content, Flags: FlagEphemeral},
	}
}

// Verify checks the ed25519 signature Discord puts on interaction requests:
// sign(timestamp + raw body) with the application's public key.
func Verify(publicKeyHex, signatureHex, timestamp string, body []byte) bool {
	pk, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pk) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(ed25519.PublicKey(pk), msg, sig)
}

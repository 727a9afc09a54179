package session

import (
	"encoding/json"
	"time"
)

// MessageType tags a socket message.
type MessageType string

const (
	MsgTypePing  MessageType = "ping"
	MsgTypePong  MessageType = "pong"
	MsgTypeError MessageType = "error"

	// server -> element
	MsgTypeLoad   MessageType = "load"
	MsgTypePlay   MessageType = "play"
	MsgTypePause  MessageType = "pause"
	MsgTypeSeek   MessageType = "seek"
	MsgTypeVolume MessageType = "volume"
	MsgTypeState  MessageType = "state"

	// element -> server, Data is a playback.Event
	MsgTypeEvent MessageType = "event"
)

// WSMessage is the envelope of every frame on /ws/player.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type LoadData struct {
	Src string `json:"src"`
}

type SeekData struct {
	Position float64 `json:"position"`
}

type VolumeData struct {
	Volume float64 `json:"volume"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// NewMessage builds a stamped message with data encoded as JSON.
func NewMessage(t MessageType, data interface{}) (*WSMessage, error) {
	msg := &WSMessage{Type: t, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return msg, nil
}

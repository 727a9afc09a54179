package session

import (
	"errors"

	"Vibe/logger"
)

// ErrNoElement is returned by Play when the user has no connected player.
var ErrNoElement = errors.New("no audio element connected")

// hubElement is a playback.Element backed by the user's WebSocket clients.
// Commands are fire-and-forget; results come back as media events.
type hubElement struct {
	hub    *Hub
	userID string
}

func (e *hubElement) send(t MessageType, data interface{}) {
	msg, err := NewMessage(t, data)
	if err == nil {
		err = e.hub.SendToUser(e.userID, msg)
	}
	if err != nil {
		logger.Warn("Failed to send element command",
			logger.String("userId", e.userID),
			logger.String("type", string(t)),
			logger.ErrorField(err))
	}
}

func (e *hubElement) Load(src string) {
	e.send(MsgTypeLoad, LoadData{Src: src})
}

func (e *hubElement) Play() error {
	if e.hub.ClientCount(e.userID) == 0 {
		return ErrNoElement
	}
	e.send(MsgTypePlay, nil)
	return nil
}

func (e *hubElement) Pause() {
	e.send(MsgTypePause, nil)
}

func (e *hubElement) Seek(seconds float64) {
	e.send(MsgTypeSeek, SeekData{Position: seconds})
}

func (e *hubElement) SetVolume(v float64) {
	e.send(MsgTypeVolume, VolumeData{Volume: v})
}

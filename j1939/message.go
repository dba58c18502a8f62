package j1939

import (
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/internal/message"
)

var _ message.Sequenced = (*Message)(nil)

// Message is a decoded batch of frames of a single session.
// Messages[i] is the decoded form of Frames[i].
type Message struct {
	message.Base

	SessionID uint64
	SeqNum    uint64

	Frames   []frame.CANFrame
	Messages []decode.Message
}

func newMessage(sessionID, seqNum uint64, frameCount int) *Message {
	return &Message{
		SessionID: sessionID,
		SeqNum:    seqNum,

		Frames:   make([]frame.CANFrame, 0, frameCount),
		Messages: make([]decode.Message, 0, frameCount),
	}
}

func (m *Message) GetStreamID() uint64 {
	return m.SessionID
}

func (m *Message) GetSequenceNumber() uint64 {
	return m.SeqNum
}

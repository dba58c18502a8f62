package tcp

import (
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/internal/message"
)

var _ message.Sequenced = (*Message)(nil)

// Message carries the frames completed by a single read of a session.
type Message struct {
	message.Base

	SessionID uint64
	SeqNum    uint64
	Remote    string

	Frames []frame.CANFrame
}

func newMessage(sessionID, seqNum uint64, remote string, frames []frame.CANFrame) *Message {
	return &Message{
		SessionID: sessionID,
		SeqNum:    seqNum,
		Remote:    remote,
		Frames:    frames,
	}
}

func (m *Message) GetStreamID() uint64 {
	return m.SessionID
}

func (m *Message) GetSequenceNumber() uint64 {
	return m.SeqNum
}

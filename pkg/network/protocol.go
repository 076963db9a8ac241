// pkg/network/protocol.go
package network

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
)

// MessageType identifies a wire message. Every frame is one type byte,
// a big-endian uint16 payload length, then the JSON payload.
type MessageType byte

const (
	HelloRequest MessageType = iota
	HelloResponse
	GoodbyeNotification
	StateUpdate
	InputCommand
	ControlCommand
	PingRequest
	PingResponse
)

// MaxFrameSize is the largest payload a frame may carry, bounded by the
// uint16 length prefix.
const MaxFrameSize = 65535

// HelloMessage opens a session; the client introduces itself by name.
type HelloMessage struct {
	ClientName string `json:"clientName"`
}

// WelcomeMessage is the server's reply to a hello.
type WelcomeMessage struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	ClientID   uint64 `json:"clientID,omitempty"`
	UpdateRate int    `json:"updateRate,omitempty"`
}

// InputMessage carries one tick's worth of flight input: a rotation of
// the thrust vector and a normalized thrust setting.
type InputMessage struct {
	Rotate float64 `json:"rotate"`
	Thrust float64 `json:"thrust"`
}

// Control actions a client may request. These map onto the engine's
// explicit recovery and host operations, never onto raw state writes.
const (
	ControlRefuel  = "refuel"
	ControlRecover = "recover"
	ControlReset   = "reset"
	ControlSpeed   = "speed"
)

// ControlMessage carries a non-flight command.
type ControlMessage struct {
	Action     string  `json:"action"`
	Amount     float64 `json:"amount,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

// writeFrame serializes msg as JSON and writes one framed message.
func writeFrame(w io.Writer, msgType MessageType, msg interface{}) error {
	var data []byte
	if msg != nil {
		var err error
		data, err = json.Marshal(msg)
		if err != nil {
			return err
		}
	}

	if len(data) > MaxFrameSize {
		return errors.New("message too large")
	}

	if err := binary.Write(w, binary.BigEndian, msgType); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	return nil
}

// readFrame reads one framed message.
func readFrame(r io.Reader) (MessageType, []byte, error) {
	var msgType MessageType
	if err := binary.Read(r, binary.BigEndian, &msgType); err != nil {
		return 0, nil, err
	}

	var msgLen uint16
	if err := binary.Read(r, binary.BigEndian, &msgLen); err != nil {
		return 0, nil, err
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, err
	}

	return msgType, data, nil
}

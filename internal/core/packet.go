package core

// Packet is one pre-encoded unit of payload handed to a container.
// The payload size is always len(Data); no separate size field exists
// so the header can never disagree with the payload.
type Packet struct {
	PTS  int64  // presentation timestamp, stream time base
	Data []byte // pre-encoded payload, not retained by the writer
}

// Size returns the payload length in bytes.
func (p Packet) Size() int { return len(p.Data) }

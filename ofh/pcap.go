package ofh

import (
	"errors"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// FrameFunc receives one captured frame.
type FrameFunc func(ci gopacket.CaptureInfo, data []byte) error

// PcapFrames hands every frame of the pcap stream r to fn, in capture order.
// It stops at the first error fn returns.
func PcapFrames(r io.Reader, fn FrameFunc) error {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return err
	}
	for {
		data, ci, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(ci, data); err != nil {
			return err
		}
	}
}

// Package ofh reads the Ethernet, VLAN, eCPRI and O-RAN fronthaul headers of captured frames.
// Each reader takes a buffer and an offset and reads one header's fields there; nothing
// checks that the values make sense or that the headers follow each other.
package ofh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// header sizes in bytes
const (
	EthernetLen = 14
	VLANLen     = 4
	ECPRILen    = 4
	OFHLen      = 2
)

// offsets of the headers in a VLAN tagged fronthaul frame
const (
	OffsetEthernet = 0
	OffsetVLAN     = 14
	OffsetECPRI    = 18
	OffsetOFH      = 22
)

// ErrShortBuffer is returned when fewer bytes remain after the offset than the header needs
var ErrShortBuffer = errors.New("ofh: buffer too short for header")

// remaining returns buf[off:off+n], or ErrShortBuffer
func remaining(buf []byte, off, n int) ([]byte, error) {
	if off < 0 || off > len(buf) || len(buf)-off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, off, max(len(buf)-off, 0))
	}
	return buf[off : off+n], nil
}

// EthHeader holds the MAC addresses and the EtherType word
type EthHeader struct {
	DstMAC    net.HardwareAddr
	SrcMAC    net.HardwareAddr
	EtherType uint16
}

// ReadEthernet reads an Ethernet header at off
func ReadEthernet(buf []byte, off int) (*EthHeader, error) {
	b, err := remaining(buf, off, EthernetLen)
	if err != nil {
		return nil, err
	}
	eth := &layers.Ethernet{}
	if err := eth.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return &EthHeader{
		DstMAC: append(net.HardwareAddr(nil), eth.DstMAC...),
		SrcMAC: append(net.HardwareAddr(nil), eth.SrcMAC...),
		// layers.Ethernet folds small values into a length, so take the word as it is
		EtherType: binary.BigEndian.Uint16(b[12:14]),
	}, nil
}

// TypeName names the EtherType, e.g. "Dot1Q"
func (h *EthHeader) TypeName() string {
	return layers.EthernetType(h.EtherType).String()
}

// VLANHeader holds the two 16-bit words of an 802.1Q tag
type VLANHeader struct {
	TPID uint16
	TCI  uint16
}

// ReadVLAN reads a VLAN tag at off
func ReadVLAN(buf []byte, off int) (*VLANHeader, error) {
	b, err := remaining(buf, off, VLANLen)
	if err != nil {
		return nil, err
	}
	return &VLANHeader{
		TPID: binary.BigEndian.Uint16(b[0:2]),
		TCI:  binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// Priority is the PCP field of the TCI
func (h *VLANHeader) Priority() uint8 {
	return uint8(h.TCI >> 13)
}

// VLANID is the VID field of the TCI
func (h *VLANHeader) VLANID() uint16 {
	return h.TCI & 0x0fff
}

// ECPRIHeader holds the eCPRI common header
type ECPRIHeader struct {
	// Revision is the first byte as found: revision, reserved bits and the concatenation flag
	Revision    uint8
	MessageType uint8
	PayloadSize uint16
}

// ReadECPRI reads an eCPRI common header at off
func ReadECPRI(buf []byte, off int) (*ECPRIHeader, error) {
	b, err := remaining(buf, off, ECPRILen)
	if err != nil {
		return nil, err
	}
	return &ECPRIHeader{
		Revision:    b[0],
		MessageType: b[1],
		PayloadSize: binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// OFHHeader holds the first 16-bit word of the O-RAN fronthaul header, uninterpreted
type OFHHeader struct {
	Word uint16
}

// ReadOFH reads the first word of an O-RAN fronthaul header at off
func ReadOFH(buf []byte, off int) (*OFHHeader, error) {
	b, err := remaining(buf, off, OFHLen)
	if err != nil {
		return nil, err
	}
	return &OFHHeader{Word: binary.BigEndian.Uint16(b)}, nil
}

package main

// ofhdump prints, for every frame of a pcap file, the headers found at the
// fixed offsets of a VLAN tagged eCPRI frame

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/gopacket"
	"github.com/iti/cmdline"
	"github.com/iti/fhsweep/logger"
	"github.com/iti/fhsweep/ofh"
)

// cmdlineParameters define variables that may appear on the command line
func cmdlineParameters() *cmdline.CmdParser {
	cp := cmdline.NewCmdParser()
	cp.AddFlag(cmdline.StringFlag, "pcap", true) // capture file
	cp.AddFlag(cmdline.IntFlag, "count", false)  // stop after this many frames
	return cp
}

// describe reads each header on its own; a header that does not fit is reported and the others still print
func describe(data []byte) string {
	parts := []string{}

	if eth, err := ofh.ReadEthernet(data, ofh.OffsetEthernet); err != nil {
		parts = append(parts, "eth: "+err.Error())
	} else {
		parts = append(parts, fmt.Sprintf("eth %s > %s type 0x%04x (%s)", eth.SrcMAC, eth.DstMAC, eth.EtherType, eth.TypeName()))
	}

	if vlan, err := ofh.ReadVLAN(data, ofh.OffsetVLAN); err != nil {
		parts = append(parts, "vlan: "+err.Error())
	} else {
		parts = append(parts, fmt.Sprintf("vlan tpid 0x%04x pcp %d vid %d", vlan.TPID, vlan.Priority(), vlan.VLANID()))
	}

	if ecpri, err := ofh.ReadECPRI(data, ofh.OffsetECPRI); err != nil {
		parts = append(parts, "ecpri: "+err.Error())
	} else {
		parts = append(parts, fmt.Sprintf("ecpri rev 0x%02x type %d size %d", ecpri.Revision, ecpri.MessageType, ecpri.PayloadSize))
	}

	if oh, err := ofh.ReadOFH(data, ofh.OffsetOFH); err != nil {
		parts = append(parts, "ofh: "+err.Error())
	} else {
		parts = append(parts, fmt.Sprintf("ofh 0x%04x", oh.Word))
	}

	return strings.Join(parts, " | ")
}

// errDone stops the frame loop once enough frames are printed
var errDone = errors.New("frame count reached")

func main() {
	cp := cmdlineParameters()
	cp.Parse()

	pcapFile := cp.GetVar("pcap").(string)
	limit := 0
	if cp.IsLoaded("count") {
		limit = cp.GetVar("count").(int)
	}

	f, err := os.Open(pcapFile)
	if err != nil {
		logger.PcapLog.Fatal(err)
	}
	defer f.Close()

	n := 0
	err = ofh.PcapFrames(f, func(ci gopacket.CaptureInfo, data []byte) error {
		n += 1
		fmt.Printf("%d %s len %d: %s\n", n, ci.Timestamp.Format("15:04:05.000000"), ci.Length, describe(data))
		if limit > 0 && n >= limit {
			return errDone
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		logger.PcapLog.Fatal(err)
	}
}

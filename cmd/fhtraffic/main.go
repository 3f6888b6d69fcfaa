package main

// fhtraffic prints the fronthaul load of one radio configuration, or writes the
// packet size tables of every compression method as CSV

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/iti/cmdline"
	"github.com/iti/fhsweep"
	"github.com/iti/fhsweep/logger"
)

// cmdlineParameters define variables that may appear on the command line
func cmdlineParameters() *cmdline.CmdParser {
	cp := cmdline.NewCmdParser()
	cp.AddFlag(cmdline.IntFlag, "bw", false)          // bandwidth, MHz
	cp.AddFlag(cmdline.IntFlag, "scs", false)         // subcarrier spacing, kHz
	cp.AddFlag(cmdline.FloatFlag, "tdd", false)       // downlink share of the TDD pattern
	cp.AddFlag(cmdline.IntFlag, "symbols", false)     // symbols per slot
	cp.AddFlag(cmdline.StringFlag, "cmp", false)      // compression method
	cp.AddFlag(cmdline.IntFlag, "ports", false)       // antenna ports
	cp.AddFlag(cmdline.IntFlag, "tx", false)          // transmit antennas
	cp.AddFlag(cmdline.BoolFlag, "overhead", false)   // count packet headers in the U-plane
	cp.AddFlag(cmdline.StringFlag, "table", false)    // directory receiving the packet size CSV tables
	cp.AddFlag(cmdline.StringFlag, "loglevel", false) // logrus level

	return cp
}

// radioConfig starts from the default cell and replaces what the command line gives
func radioConfig(cp *cmdline.CmdParser) fhsweep.RadioConfig {
	rc := fhsweep.DefaultRadioConfig()
	if cp.IsLoaded("bw") {
		rc.BandwidthMHz = cp.GetVar("bw").(int)
	}
	if cp.IsLoaded("scs") {
		rc.SCSkHz = cp.GetVar("scs").(int)
	}
	if cp.IsLoaded("tdd") {
		rc.TDD = cp.GetVar("tdd").(float64)
	}
	if cp.IsLoaded("symbols") {
		rc.Symbols = cp.GetVar("symbols").(int)
	}
	if cp.IsLoaded("cmp") {
		rc.Compression = cp.GetVar("cmp").(string)
	}
	if cp.IsLoaded("ports") {
		rc.Ports = cp.GetVar("ports").(int)
	}
	if cp.IsLoaded("tx") {
		rc.TxAntennas = cp.GetVar("tx").(int)
	}
	if cp.IsLoaded("overhead") && cp.GetVar("overhead").(bool) {
		rc = rc.WithHeaderOverhead()
	}
	return rc
}

// writeTable stores one packet size table, SCS by row and bandwidth by column
func writeTable(pt *fhsweep.PacketTable, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"SCS (kHz)"}
	for _, bw := range pt.Bandwidths {
		header = append(header, strconv.Itoa(bw))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for row, scs := range pt.SCS {
		rec := []string{strconv.Itoa(scs)}
		for _, v := range pt.Bytes[row] {
			if math.IsNaN(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeTables writes <method>_user_plane.csv and <method>_control_plane.csv for every method
func writeTables(dir string) error {
	valid, err := fhsweep.CheckDirectories([]string{dir})
	if !valid {
		return err
	}
	for _, cmp := range fhsweep.Compressions {
		for _, plane := range []fhsweep.Plane{fhsweep.UserPlane, fhsweep.ControlPlane} {
			pt, err := fhsweep.PacketSizeTable(cmp.Name, plane)
			if err != nil {
				return err
			}
			filename := filepath.Join(dir, fmt.Sprintf("%s_%s_plane.csv", cmp.Name, plane))
			if err := writeTable(pt, filename); err != nil {
				return err
			}
			logger.TrafficLog.Debugf("wrote %s", filename)
		}
	}
	return nil
}

func main() {
	cp := cmdlineParameters()
	cp.Parse()

	if cp.IsLoaded("loglevel") {
		logger.SetLogLevel(cp.GetVar("loglevel").(string))
	}

	if cp.IsLoaded("table") {
		if err := writeTables(cp.GetVar("table").(string)); err != nil {
			logger.TrafficLog.Fatal(err)
		}
		return
	}

	tr, err := fhsweep.FronthaulTraffic(radioConfig(cp))
	if err != nil {
		logger.TrafficLog.Fatal(err)
	}
	fmt.Println(tr)
}

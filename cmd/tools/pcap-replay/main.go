//go:build pcap
// +build pcap

// Command pcap-replay converts captured UDP point cloud packets into
// the frame log format the motiongrid command replays. Each UDP payload
// carries packed little-endian float32 x,y,z triplets; a gap in capture
// timestamps starts a new frame.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

var (
	pcapFile = flag.String("pcap", "", "PCAP capture to convert")
	outFile  = flag.String("out", "", "Output frame log path (default stdout)")
	udpPort  = flag.Int("port", 2368, "UDP port carrying point data")
	frameGap = flag.Duration("frame-gap", 50*time.Millisecond, "Capture timestamp gap that starts a new frame")
)

func main() {
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	out := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := convert(out); err != nil {
		log.Fatal(err)
	}
}

func convert(out *os.File) error {
	handle, err := pcap.OpenOffline(*pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", *pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", *udpPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filterStr, err)
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	var lastTS time.Time
	packetCount := 0
	frameCount := 0
	pointCount := 0
	framePoints := 0

	for packet := range packetSource.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		packetCount++

		ts := packet.Metadata().Timestamp
		if !lastTS.IsZero() && ts.Sub(lastTS) > *frameGap && framePoints > 0 {
			fmt.Fprintln(w)
			frameCount++
			framePoints = 0
		}
		lastTS = ts

		n, err := writePoints(w, udp.Payload)
		if err != nil {
			return fmt.Errorf("packet %d: %w", packetCount, err)
		}
		framePoints += n
		pointCount += n

		if packetCount%10000 == 0 {
			log.Printf("Progress: %d packets, %d frames, %d points", packetCount, frameCount, pointCount)
		}
	}
	if framePoints > 0 {
		fmt.Fprintln(w)
		frameCount++
	}

	log.Printf("Converted %d packets into %d frames (%d points)", packetCount, frameCount, pointCount)
	return nil
}

// writePoints decodes packed little-endian float32 x,y,z triplets and
// writes one frame log line per point. Trailing partial triplets are
// dropped.
func writePoints(w *bufio.Writer, payload []byte) (int, error) {
	const triplet = 12
	n := len(payload) / triplet
	for i := 0; i < n; i++ {
		base := i * triplet
		x := math.Float32frombits(binary.LittleEndian.Uint32(payload[base:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(payload[base+4:]))
		z := math.Float32frombits(binary.LittleEndian.Uint32(payload[base+8:]))
		if _, err := fmt.Fprintf(w, "%g,%g,%g\n", x, y, z); err != nil {
			return i, err
		}
	}
	return n, nil
}

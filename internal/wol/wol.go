// Package wol constructs and sends Wake-on-LAN magic packets: six
// synchronization bytes followed by the target MAC address repeated
// sixteen times, broadcast over UDP on port 9.
package wol

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

const (
	// Port is the conventional Wake-on-LAN UDP destination port.
	Port = 9

	macLen    = 6
	repeats   = 16
	packetLen = macLen + macLen*repeats
)

// BuildPacket parses mac (colon- or hyphen-separated hex) and returns the
// 102-byte magic packet.
func BuildPacket(mac string) ([]byte, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("wol: invalid MAC %q: %w", mac, err)
	}
	if len(hw) != macLen {
		return nil, fmt.Errorf("wol: MAC %q is not 6 bytes", mac)
	}

	packet := make([]byte, packetLen)
	for i := 0; i < macLen; i++ {
		packet[i] = 0xFF
	}
	for i := 0; i < repeats; i++ {
		copy(packet[macLen+i*macLen:], hw)
	}
	return packet, nil
}

// Send broadcasts the magic packet for mac to broadcastAddr (an IPv4
// dotted-quad, e.g. "192.168.1.255") on Port, with SO_BROADCAST enabled on
// the sending socket.
func Send(mac, broadcastAddr string) error {
	packet, err := BuildPacket(mac)
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("wol: open socket: %w", err)
	}
	defer conn.Close()

	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		return fmt.Errorf("wol: unexpected socket type %T", conn)
	}
	raw, err := udpConn.SyscallConn()
	if err != nil {
		return fmt.Errorf("wol: access raw socket: %w", err)
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return fmt.Errorf("wol: control socket: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("wol: set SO_BROADCAST: %w", sockErr)
	}

	dest := &net.UDPAddr{IP: net.ParseIP(broadcastAddr), Port: Port}
	if dest.IP == nil {
		return fmt.Errorf("wol: invalid broadcast address %q", broadcastAddr)
	}

	if _, err := udpConn.WriteTo(packet, dest); err != nil {
		return fmt.Errorf("wol: send packet: %w", err)
	}
	return nil
}

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

const unknownTerminal = "POS-UNKNOWN"

// TerminalID derives a stable id such as "POS-A1B2C3D4" for this machine
// from the first active network interface, falling back to the host name.
// It labels backups and the status endpoint.
func TerminalID() string {
	interfaces, err := net.Interfaces()
	if err == nil {
		if id := terminalIDFrom(interfaces); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return hashID(host)
	}
	return unknownTerminal
}

func terminalIDFrom(interfaces []net.Interface) string {
	for _, i := range interfaces {
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			return hashID(i.HardwareAddr.String())
		}
	}
	return ""
}

func hashID(seed string) string {
	hash := sha256.Sum256([]byte(seed + "POS-TERMINAL"))
	return "POS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

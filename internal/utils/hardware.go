package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
	"sync"
)

const unknownDevice = "POS-UNKNOWN"

var (
	deviceOnce sync.Once
	deviceID   string
)

// GetDeviceID is a stable id for the machine running the server, shown to
// the tills so a receipt can be traced back to the box that issued it. It
// hashes the first active MAC address, or the hostname when there is none.
func GetDeviceID() string {
	deviceOnce.Do(func() {
		deviceID = deviceIDFrom(firstMAC(), hostname())
	})
	return deviceID
}

func deviceIDFrom(mac, host string) string {
	seed := mac
	if seed == "" {
		seed = host
	}
	if seed == "" {
		return unknownDevice
	}
	hash := sha256.Sum256([]byte(seed + "|pos-ventas"))
	return "POS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

func firstMAC() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, i := range interfaces {
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			return i.HardwareAddr.String()
		}
	}
	return ""
}

func hostname() string {
	h, _ := os.Hostname()
	return h
}

package hue

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SSDP discovery constants.
const (
	// ssdpAddress is the SSDP multicast group and port.
	ssdpAddress = "239.255.255.250:1900"

	// ssdpMaxDatagram is the read buffer size for SSDP responses.
	ssdpMaxDatagram = 2048

	// defaultDiscoverTimeout is how long Discover listens for responses
	// when the context carries no deadline.
	defaultDiscoverTimeout = 3 * time.Second
)

// ssdpSearchRequest is the M-SEARCH datagram sent to the multicast group.
// MX tells responders to spread replies over 2 seconds.
const ssdpSearchRequest = "M-SEARCH * HTTP/1.1\r\n" +
	"HOST: 239.255.255.250:1900\r\n" +
	"MAN: \"ssdp:discover\"\r\n" +
	"MX: 2\r\n" +
	"ST: ssdp:all\r\n" +
	"\r\n"

// Discover broadcasts an SSDP search on the local network and returns the
// addresses of responders that identify as bridges. The result is a list of
// candidate addresses only; registration still requires an explicit call
// with a credential.
//
// Duplicate responses from the same bridge are collapsed.
func Discover(ctx context.Context) ([]string, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultDiscoverTimeout)
	}

	remote, err := net.ResolveUDPAddr("udp4", ssdpAddress)
	if err != nil {
		return nil, fmt.Errorf("resolving ssdp address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, fmt.Errorf("opening ssdp socket: %w", err)
	}
	defer conn.Close() //nolint:errcheck // Read side close on exit

	if _, err := conn.WriteToUDP([]byte(ssdpSearchRequest), remote); err != nil {
		return nil, fmt.Errorf("sending ssdp search: %w", err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting ssdp deadline: %w", err)
	}

	seen := make(map[string]struct{})
	var addresses []string
	buf := make([]byte, ssdpMaxDatagram)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			// Deadline expiry ends the collection window.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			return addresses, fmt.Errorf("reading ssdp response: %w", err)
		}

		address, ok := parseSSDPResponse(buf[:n])
		if !ok {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		addresses = append(addresses, address)
	}

	return addresses, nil
}

// parseSSDPResponse extracts a bridge address from one SSDP datagram.
// Bridges announce themselves with an "IpBridge" token in the SERVER header
// and their API base URL in LOCATION.
func parseSSDPResponse(datagram []byte) (string, bool) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(datagram)), nil)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close() //nolint:errcheck // In-memory reader

	if !strings.Contains(resp.Header.Get("Server"), "IpBridge") {
		return "", false
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", false
	}
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Host, true
}

package net

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	// FeedService is advertised by a pad running the status feed.
	FeedService = "_digitpad._tcp"
	// RecognizerService is what a recognizer on the LAN advertises.
	RecognizerService = "_digitpad-recognizer._tcp"
)

var ErrNoRecognizer = errors.New("no recognizer found on the local network")

// Advertise announces the status feed on port over mDNS. Close the returned
// server to withdraw the announcement.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		host,
		FeedService,
		"",
		"",
		port,
		nil,
		[]string{"DigitPad", "path=/ws/status"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Printf("[MDNS] Advertising %s on port %d", FeedService, port)
	return server, nil
}

// Browse queries service for timeout and calls found for each IPv4 entry.
func Browse(service string, timeout time.Duration, found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	return err
}

// DiscoverRecognizer returns the base URL of the first recognizer that
// answers within timeout.
func DiscoverRecognizer(timeout time.Duration) (string, error) {
	var first string
	err := Browse(RecognizerService, timeout, func(addr string) {
		if first == "" {
			first = addr
		}
	})
	if err != nil {
		return "", fmt.Errorf("browse %s: %w", RecognizerService, err)
	}
	if first == "" {
		return "", ErrNoRecognizer
	}
	log.Printf("[MDNS] Found recognizer at %s", first)
	return "http://" + first, nil
}

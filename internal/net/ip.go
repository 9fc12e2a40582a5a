package net

import (
	"fmt"
	"log"
	"net"
	"strconv"
)

const loopbackHost = "127.0.0.1"

// FeedHost picks the address printed in the status feed link. A feed bound to
// a specific IP is reached there; a wildcard bind is reached on the LAN.
func FeedHost(bindAddr string) string {
	if host, _, err := net.SplitHostPort(bindAddr); err == nil {
		if ip := net.ParseIP(host); ip != nil && !ip.IsUnspecified() {
			return ip.String()
		}
	}
	return LANAddr()
}

// LANAddr returns the IPv4 address of the first interface that is up,
// preferring private ranges. It falls back to loopback.
func LANAddr() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		log.Printf("[FEED] list interfaces: %v", err)
		return loopbackHost
	}
	var addrs []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		addrs = append(addrs, ifAddrs...)
	}
	if ip := pickLANAddr(addrs); ip != "" {
		return ip
	}
	log.Println("[FEED] no LAN address, feed link is local only")
	return loopbackHost
}

// pickLANAddr chooses a private IPv4 address, then any other routable IPv4.
// Loopback and link-local addresses never qualify.
func pickLANAddr(addrs []net.Addr) string {
	var public string
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		ip4 := ip.To4()
		if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() || ip4.IsUnspecified() {
			continue
		}
		if ip4.IsPrivate() {
			return ip4.String()
		}
		if public == "" {
			public = ip4.String()
		}
	}
	return public
}

// FeedURL builds the websocket link viewers connect to.
func FeedURL(host string, port int) string {
	return fmt.Sprintf("ws://%s/ws/status", net.JoinHostPort(host, strconv.Itoa(port)))
}

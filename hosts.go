package cari

import (
	"fmt"
	"net/url"
	"strings"
)

// Hosts is the ordered list of candidate hosts for each traffic class. It is a
// value: Client.WithHosts produces a new client view instead of mutating one.
type Hosts struct {
	Read  []string
	Write []string
}

// NewHosts copies read and write so later changes by the caller are not seen.
func NewHosts(read, write []string) Hosts {
	return Hosts{
		Read:  append([]string(nil), read...),
		Write: append([]string(nil), write...),
	}
}

// For returns a copy of the ordering used by class.
func (h Hosts) For(class TrafficClass) []string {
	switch class {
	case Read:
		return append([]string(nil), h.Read...)
	case Write:
		return append([]string(nil), h.Write...)
	default:
		return nil
	}
}

func (h Hosts) validate() []string {
	var errs []string
	if len(h.Read) == 0 {
		errs = append(errs, "no read hosts configured")
	}
	if len(h.Write) == 0 {
		errs = append(errs, "no write hosts configured")
	}
	for _, host := range append(h.For(Read), h.Write...) {
		if _, err := baseURL(host); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// baseURL turns "host[:port]" or "scheme://host[:port]" into a base URL.
// Bare hosts are assumed to speak https.
func baseURL(host string) (*url.URL, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("empty host")
	}
	raw := host
	if !strings.Contains(host, "://") {
		raw = "https://" + host
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid host %q: %w", host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid host %q", host)
	}
	return u, nil
}

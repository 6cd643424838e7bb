// Package portscan reads the kernel TCP socket tables dumped from a
// container and evaluates listener expectations against them.
package portscan

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode selects the expectation applied to the scanned pods.
type Mode string

const (
	// ModeEnabled expects every scanned pod to listen on the port.
	ModeEnabled Mode = "enabled"
	// ModeDisabled expects no scanned pod to listen on the port.
	ModeDisabled Mode = "disabled"
	// ModeCheck expects at least one scanned pod to listen on the port.
	ModeCheck Mode = "check"
)

// listenState is the st column value of a listening socket in
// /proc/net/tcp and /proc/net/tcp6.
const listenState = "0A"

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeEnabled, ModeDisabled, ModeCheck:
		return Mode(value), nil
	}
	return "", fmt.Errorf("mode %q is not valid, it should be one of: %s, %s, %s", value, ModeEnabled, ModeDisabled, ModeCheck)
}

func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d is out of range, it should be between 1 and 65535", port)
	}
	return nil
}

// PortHex returns the uppercase four digit hexadecimal form of port as
// it appears in the local_address column of the socket tables.
func PortHex(port int) string {
	return fmt.Sprintf("%04X", port)
}

// ParsePortHex parses the hexadecimal port form back into a port number.
func ParsePortHex(value string) (int, error) {
	port, err := strconv.ParseUint(value, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("hex port %q is not valid: %s", value, err)
	}
	return int(port), nil
}

// Command returns the command executed inside the target container to
// dump its TCP socket tables. The IPv6 table is optional on hosts
// without IPv6 support, so its absence is ignored.
func Command() []string {
	return []string{"sh", "-c", "cat /proc/net/tcp /proc/net/tcp6 2>/dev/null"}
}

// ListensOn reports whether the socket table dump contains a listening
// socket bound to port. Lines that do not look like socket entries,
// such as the column headers, are skipped.
func ListensOn(dump []byte, port int) bool {
	hexPort := PortHex(port)
	scanner := bufio.NewScanner(bytes.NewReader(dump))
	for scanner.Scan() {
		local, state, ok := socketEntry(scanner.Text())
		if !ok || state != listenState {
			continue
		}
		if strings.EqualFold(localPort(local), hexPort) {
			return true
		}
	}
	return false
}

// ListeningPorts extracts the distinct local ports of all listening
// sockets in the dump, sorted ascending.
func ListeningPorts(dump []byte) []int {
	seen := map[int]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(dump))
	for scanner.Scan() {
		local, state, ok := socketEntry(scanner.Text())
		if !ok || state != listenState {
			continue
		}
		port, err := ParsePortHex(localPort(local))
		if err != nil {
			continue
		}
		seen[port] = true
	}
	ports := make([]int, 0, len(seen))
	for port := range seen {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}

func socketEntry(line string) (local string, state string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 || !strings.Contains(fields[1], ":") {
		return "", "", false
	}
	return fields[1], fields[3], true
}

func localPort(local string) string {
	return local[strings.LastIndex(local, ":")+1:]
}

// Result records the outcome of scanning one pod.
type Result struct {
	Pod       string
	Listening bool
	Err       error
}

// Evaluate applies mode to the per pod results and reports whether the
// expectation holds, with a short explanation. Pods whose scan failed
// count against the enabled and disabled modes, since neither presence
// nor absence of the listener could be verified for them.
func Evaluate(mode Mode, port int, results []Result) (bool, string) {
	if len(results) == 0 {
		return false, "no pods were scanned"
	}
	var listening, failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			continue
		}
		if result.Listening {
			listening++
		}
	}
	detail := fmt.Sprintf("%d/%d pods listening on port %d", listening, len(results), port)
	if failed > 0 {
		detail = fmt.Sprintf("%s, %d scans failed", detail, failed)
	}
	switch mode {
	case ModeEnabled:
		return failed == 0 && listening == len(results), detail
	case ModeDisabled:
		return failed == 0 && listening == 0, detail
	default:
		return listening > 0, detail
	}
}

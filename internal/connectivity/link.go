package connectivity

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// defaultAssociateTimeout bounds one association attempt.
const defaultAssociateTimeout = 30 * time.Second

// Associator joins a network. It may block; InterfaceLink runs it on its
// own goroutine.
type Associator interface {
	Associate(ctx context.Context) error
}

// InterfaceLink reports the link up when a network interface is up, is not
// loopback and carries at least one unicast address.
type InterfaceLink struct {
	name       string
	associator Associator
	timeout    time.Duration

	interfaces func() ([]net.Interface, error)
	addrs      func(iface net.Interface) ([]net.Addr, error)
}

// NewInterfaceLink watches the named interface, or any suitable interface
// when name is empty. associator may be nil when the operating system
// manages association by itself.
func NewInterfaceLink(name string, associator Associator) *InterfaceLink {
	return &InterfaceLink{
		name:       name,
		associator: associator,
		timeout:    defaultAssociateTimeout,
		interfaces: net.Interfaces,
		addrs: func(iface net.Interface) ([]net.Addr, error) {
			return iface.Addrs()
		},
	}
}

// Up reports whether a usable interface exists.
func (l *InterfaceLink) Up() bool {
	ifaces, err := l.interfaces()
	if err != nil {
		return false
	}

	for _, iface := range ifaces {
		if l.name != "" && iface.Name != l.name {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if l.hasAddress(iface) {
			return true
		}
	}
	return false
}

func (l *InterfaceLink) hasAddress(iface net.Interface) bool {
	addrs, err := l.addrs(iface)
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ipnet.IP.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// Associate runs the associator in the background.
func (l *InterfaceLink) Associate() Pending {
	if l.associator == nil {
		return nil
	}

	a := &attempt{done: make(chan struct{})}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		a.err = l.associator.Associate(ctx)
		close(a.done)
	}()
	return a
}

// attempt is a Pending backed by a goroutine.
type attempt struct {
	done chan struct{}
	err  error
}

func (a *attempt) Done() <-chan struct{} { return a.done }

// Error is only read after done is closed, which orders the write.
func (a *attempt) Error() error { return a.err }

// NMCLI joins a Wi-Fi network through NetworkManager's command line.
type NMCLI struct {
	SSID       string
	Passphrase string
	Interface  string

	// run executes the command with stdin attached; replaced in tests.
	run func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// NewNMCLI creates an associator for ssid.
func NewNMCLI(ssid, passphrase, iface string) *NMCLI {
	return &NMCLI{
		SSID:       ssid,
		Passphrase: passphrase,
		Interface:  iface,
		run: func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
			cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // fixed binary, arguments from config
			cmd.Stdin = bytes.NewReader(stdin)
			return cmd.CombinedOutput()
		},
	}
}

// Associate runs `nmcli device wifi connect`. The passphrase is answered on
// stdin through --ask so it never appears in the process arguments.
func (n *NMCLI) Associate(ctx context.Context) error {
	out, err := n.run(ctx, n.stdin(), "nmcli", n.args()...)
	if err != nil {
		return fmt.Errorf("nmcli connect %q: %w: %s", n.SSID, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (n *NMCLI) args() []string {
	var args []string
	if n.Passphrase != "" {
		args = append(args, "--ask")
	}
	args = append(args, "device", "wifi", "connect", n.SSID)
	if n.Interface != "" {
		args = append(args, "ifname", n.Interface)
	}
	return args
}

func (n *NMCLI) stdin() []byte {
	if n.Passphrase == "" {
		return nil
	}
	return []byte(n.Passphrase + "\n")
}

package connectivity

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func fakeInterfaces(ifaces []net.Interface, addrs map[string][]net.Addr) (func() ([]net.Interface, error), func(net.Interface) ([]net.Addr, error)) {
	return func() ([]net.Interface, error) {
			return ifaces, nil
		}, func(iface net.Interface) ([]net.Addr, error) {
			return addrs[iface.Name], nil
		}
}

func ipNet(cidr string) net.Addr {
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestInterfaceLink_Up(t *testing.T) {
	ifaces := []net.Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{Name: "wlan0", Flags: net.FlagUp},
		{Name: "eth0", Flags: 0},
	}

	tests := []struct {
		name  string
		iface string
		addrs map[string][]net.Addr
		want  bool
	}{
		{
			name:  "loopback only",
			addrs: map[string][]net.Addr{"lo": {ipNet("127.0.0.1/8")}},
			want:  false,
		},
		{
			name:  "wlan with private address",
			addrs: map[string][]net.Addr{"wlan0": {ipNet("192.168.1.20/24")}},
			want:  true,
		},
		{
			name:  "wlan with link-local only",
			addrs: map[string][]net.Addr{"wlan0": {ipNet("169.254.10.1/16")}},
			want:  false,
		},
		{
			name:  "address on down interface",
			addrs: map[string][]net.Addr{"eth0": {ipNet("10.0.0.5/24")}},
			want:  false,
		},
		{
			name:  "named interface ignores others",
			iface: "eth0",
			addrs: map[string][]net.Addr{"wlan0": {ipNet("192.168.1.20/24")}},
			want:  false,
		},
		{
			name:  "named interface up",
			iface: "wlan0",
			addrs: map[string][]net.Addr{"wlan0": {ipNet("192.168.1.20/24")}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewInterfaceLink(tt.iface, nil)
			l.interfaces, l.addrs = fakeInterfaces(ifaces, tt.addrs)

			if got := l.Up(); got != tt.want {
				t.Errorf("Up() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterfaceLink_ListError(t *testing.T) {
	l := NewInterfaceLink("", nil)
	l.interfaces = func() ([]net.Interface, error) {
		return nil, errors.New("netlink unavailable")
	}
	if l.Up() {
		t.Error("Up() = true when interfaces cannot be listed")
	}
}

func TestInterfaceLink_AssociateWithoutAssociator(t *testing.T) {
	l := NewInterfaceLink("", nil)
	if p := l.Associate(); p != nil {
		t.Errorf("Associate() = %v, want nil", p)
	}
}

type funcAssociator func(ctx context.Context) error

func (f funcAssociator) Associate(ctx context.Context) error { return f(ctx) }

func TestInterfaceLink_AssociateRunsInBackground(t *testing.T) {
	release := make(chan struct{})
	want := errors.New("auth failed")

	l := NewInterfaceLink("wlan0", funcAssociator(func(ctx context.Context) error {
		<-release
		return want
	}))

	p := l.Associate()
	if p == nil {
		t.Fatal("Associate() = nil with an associator")
	}

	select {
	case <-p.Done():
		t.Fatal("attempt finished before associator returned")
	default:
	}

	close(release)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("attempt did not finish")
	}
	if !errors.Is(p.Error(), want) {
		t.Errorf("Error() = %v, want %v", p.Error(), want)
	}
}

func TestNMCLI_Args(t *testing.T) {
	tests := []struct {
		name      string
		n         *NMCLI
		want      string
		wantStdin string
	}{
		{
			name: "open network",
			n:    NewNMCLI("lab", "", ""),
			want: "device wifi connect lab",
		},
		{
			name:      "passphrase and interface",
			n:         NewNMCLI("lab", "hunter2", "wlan0"),
			want:      "--ask device wifi connect lab ifname wlan0",
			wantStdin: "hunter2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(tt.n.args(), " "); got != tt.want {
				t.Errorf("args = %q, want %q", got, tt.want)
			}
			if got := string(tt.n.stdin()); got != tt.wantStdin {
				t.Errorf("stdin = %q, want %q", got, tt.wantStdin)
			}
		})
	}
}

func TestNMCLI_PassphraseNotInArgs(t *testing.T) {
	n := NewNMCLI("lab", "hunter2", "wlan0")

	var gotArgs []string
	var gotStdin []byte
	n.run = func(_ context.Context, stdin []byte, _ string, args ...string) ([]byte, error) {
		gotArgs, gotStdin = args, stdin
		return nil, nil
	}
	if err := n.Associate(context.Background()); err != nil {
		t.Fatalf("Associate() error = %v", err)
	}

	for _, arg := range gotArgs {
		if strings.Contains(arg, "hunter2") {
			t.Fatalf("passphrase visible in arguments %q", gotArgs)
		}
	}
	if string(gotStdin) != "hunter2\n" {
		t.Errorf("stdin = %q, want passphrase line", gotStdin)
	}
}

func TestNMCLI_Associate(t *testing.T) {
	n := NewNMCLI("lab", "hunter2", "")

	var gotName string
	n.run = func(_ context.Context, _ []byte, name string, _ ...string) ([]byte, error) {
		gotName = name
		return nil, nil
	}
	if err := n.Associate(context.Background()); err != nil {
		t.Fatalf("Associate() error = %v", err)
	}
	if gotName != "nmcli" {
		t.Errorf("ran %q, want nmcli", gotName)
	}

	exitErr := errors.New("exit status 10")
	n.run = func(context.Context, []byte, string, ...string) ([]byte, error) {
		return []byte("Error: No network with SSID 'lab' found.\n"), exitErr
	}
	err := n.Associate(context.Background())
	if !errors.Is(err, exitErr) {
		t.Fatalf("Associate() error = %v, want wrapped exit error", err)
	}
	if !strings.Contains(err.Error(), "No network with SSID") {
		t.Errorf("error %q does not carry nmcli output", err)
	}
}

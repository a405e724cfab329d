package discovery

import (
	"errors"
	"testing"
)

func TestStaticPortsKeepsOrder(t *testing.T) {
	lister := StaticPorts{"/dev/ttyUSB1", "/dev/ttyS0", "/dev/ttyACM0"}

	got, err := lister.ListPorts()
	if err != nil {
		t.Fatalf("ListPorts() error = %v", err)
	}
	for i, want := range lister {
		if got[i] != want {
			t.Errorf("port %d = %q, want %q", i, got[i], want)
		}
	}

	got[0] = "changed"
	if lister[0] != "/dev/ttyUSB1" {
		t.Error("ListPorts() returned the backing slice")
	}
}

func TestPortListerFunc(t *testing.T) {
	boom := errors.New("enumeration failed")
	var lister PortLister = PortListerFunc(func() ([]string, error) { return nil, boom })

	if _, err := lister.ListPorts(); !errors.Is(err, boom) {
		t.Errorf("ListPorts() error = %v, want %v", err, boom)
	}
}

func TestPortDetailsUSBID(t *testing.T) {
	tests := []struct {
		name string
		port PortDetails
		want string
	}{
		{"usb", PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"}, "0403:6001"},
		{"usb upper case", PortDetails{Name: "COM4", IsUSB: true, VID: "10C4", PID: "EA60"}, "10c4:ea60"},
		{"native", PortDetails{Name: "/dev/ttyS0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.port.USBID(); got != tt.want {
				t.Errorf("USBID() = %q, want %q", got, tt.want)
			}
		})
	}
}

package robot

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// fakePort records writes and serves canned sensor replies.
type fakePort struct {
	written bytes.Buffer
	replies bytes.Buffer
	closed  bool
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }

// Read mimics a serial port with a read timeout: no data means (0, nil).
func (p *fakePort) Read(b []byte) (int, error) {
	if p.replies.Len() == 0 {
		return 0, nil
	}
	return p.replies.Read(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func newTestCreate() (*Create, *fakePort, *[]time.Duration) {
	port := &fakePort{}
	c := New(port)
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, port, &slept
}

func TestCreate_Start(t *testing.T) {
	c, port, slept := newTestCreate()

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := port.written.Bytes(); !bytes.Equal(got, []byte{OpStart, OpSafe}) {
		t.Errorf("Start bytes: got %v, want [128 131]", got)
	}
	if len(*slept) != 1 || (*slept)[0] != StartupDelay {
		t.Errorf("expected one startup delay, got %v", *slept)
	}
}

func TestCreate_Bumpers(t *testing.T) {
	tests := []struct {
		name  string
		reply byte
		want  Bumpers
	}{
		{"none", 0x00, Bumpers{}},
		{"right", 0x01, Bumpers{Right: true}},
		{"left", 0x02, Bumpers{Left: true}},
		{"both", 0x03, Bumpers{Left: true, Right: true}},
		{"wheel drop only", 0x0C, Bumpers{}},
		{"left with caster", 0x12, Bumpers{Left: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, port, _ := newTestCreate()
			port.replies.WriteByte(tc.reply)

			got, err := c.Bumpers()
			if err != nil {
				t.Fatalf("Bumpers: %v", err)
			}
			if got != tc.want {
				t.Errorf("Bumpers: got %+v, want %+v", got, tc.want)
			}
			if req := port.written.Bytes(); !bytes.Equal(req, []byte{OpSensors, PacketBumpsWheelDrops}) {
				t.Errorf("request bytes: got %v, want [142 7]", req)
			}
		})
	}
}

func TestCreate_BumpersTimeout(t *testing.T) {
	c, _, _ := newTestCreate()

	_, err := c.Bumpers()
	if !errors.Is(err, ErrSensorTimeout) {
		t.Fatalf("expected ErrSensorTimeout, got %v", err)
	}
}

func TestCreate_DriveBytes(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		turnRate float64
		want     []byte
	}{
		{"forward", 10, 0, []byte{OpDrive, 0x00, 0x64, 0x80, 0x00}},
		{"reverse", -10, 0, []byte{OpDrive, 0xFF, 0x9C, 0x80, 0x00}},
		{"arc left", 10, 10, []byte{OpDrive, 0x00, 0x64, 0x02, 0x3D}},
		{"arc right", 10, -10, []byte{OpDrive, 0x00, 0x64, 0xFD, 0xC3}},
		{"spin ccw", 0, 100, []byte{OpDrive, 0x00, 0xCD, 0x00, 0x01}},
		{"spin cw", 0, -100, []byte{OpDrive, 0x00, 0xCD, 0xFF, 0xFF}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, port, _ := newTestCreate()
			if err := c.Drive(tc.speed, tc.turnRate); err != nil {
				t.Fatalf("Drive: %v", err)
			}
			if got := port.written.Bytes(); !bytes.Equal(got, tc.want) {
				t.Errorf("Drive(%v, %v): got % X, want % X", tc.speed, tc.turnRate, got, tc.want)
			}
		})
	}
}

func TestCreate_Stop(t *testing.T) {
	c, port, _ := newTestCreate()
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := []byte{OpDrive, 0x00, 0x00, 0x80, 0x00}
	if got := port.written.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Stop: got % X, want % X", got, want)
	}
}

func TestCreate_TurnInPlace(t *testing.T) {
	c, port, slept := newTestCreate()

	if err := c.TurnInPlace(180, 100); err != nil {
		t.Fatalf("TurnInPlace: %v", err)
	}

	want := []byte{
		OpDrive, 0x00, 0xCD, 0x00, 0x01, // spin CCW at 100 deg/s
		OpDrive, 0x00, 0x00, 0x80, 0x00, // stop
	}
	if got := port.written.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("TurnInPlace bytes: got % X, want % X", got, want)
	}
	if len(*slept) != 1 || (*slept)[0] != 1800*time.Millisecond {
		t.Errorf("TurnInPlace sleep: got %v, want [1.8s]", *slept)
	}
}

func TestCreate_TurnInPlaceNegative(t *testing.T) {
	c, port, _ := newTestCreate()

	if err := c.TurnInPlace(-90, 100); err != nil {
		t.Fatalf("TurnInPlace: %v", err)
	}
	if got := port.written.Bytes()[3:5]; !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("negative angle should spin clockwise, radius bytes % X", got)
	}
}

func TestCreate_Close(t *testing.T) {
	c, port, _ := newTestCreate()
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.closed {
		t.Error("port should be closed")
	}
	if got := port.written.Bytes(); !bytes.Equal(got, []byte{OpStart}) {
		t.Errorf("Close should return to passive mode, wrote %v", got)
	}
}

func TestDriveParams(t *testing.T) {
	tests := []struct {
		name       string
		speed      float64
		turnRate   float64
		wantVel    int16
		wantRadius int16
	}{
		{"idle", 0, 0, 0, RadiusStraight},
		{"straight", 10, 0, 100, RadiusStraight},
		{"clamped velocity", 80, 0, MaxVelocity, RadiusStraight},
		{"gentle arc becomes straight", 50, 1, 500, RadiusStraight},
		{"arc", 10, 10, 100, 573},
		{"spin", 0, 100, 205, RadiusCCW},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, r := DriveParams(tc.speed, tc.turnRate)
			if v != tc.wantVel || r != tc.wantRadius {
				t.Errorf("DriveParams(%v, %v): got (%d, %d), want (%d, %d)",
					tc.speed, tc.turnRate, v, r, tc.wantVel, tc.wantRadius)
			}
		})
	}
}

func TestBumpers_Side(t *testing.T) {
	tests := []struct {
		b    Bumpers
		any  bool
		side string
	}{
		{Bumpers{}, false, "none"},
		{Bumpers{Left: true}, true, "left"},
		{Bumpers{Right: true}, true, "right"},
		{Bumpers{Left: true, Right: true}, true, "both"},
	}
	for _, tc := range tests {
		if tc.b.Any() != tc.any || tc.b.Side() != tc.side {
			t.Errorf("%+v: got any=%v side=%q", tc.b, tc.b.Any(), tc.b.Side())
		}
	}
}

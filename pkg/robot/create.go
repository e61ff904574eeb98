package robot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/teslashibe/go-patrol/internal/log"
)

// Open Interface opcodes used by the patrol robot.
const (
	OpStart   byte = 128
	OpSafe    byte = 131
	OpFull    byte = 132
	OpDrive   byte = 137
	OpSensors byte = 142
)

// Sensor packet 7: bumps and wheel drops.
const (
	PacketBumpsWheelDrops byte = 7

	bitBumpRight = 1 << 0
	bitBumpLeft  = 1 << 1
)

// Drive radius special values (mm).
const (
	RadiusStraight int16 = math.MinInt16 // 0x8000
	RadiusCW       int16 = -1
	RadiusCCW      int16 = 1

	MaxVelocity = 500  // mm/s
	MaxRadius   = 2000 // mm
)

// Serial and timing defaults.
const (
	DefaultBaud  = 57600
	ReadTimeout  = time.Second
	StartupDelay = 100 * time.Millisecond

	// WheelSpan is the distance between the drive wheels in mm.
	WheelSpan = 235.0
)

// ErrSensorTimeout is returned when the base does not answer a sensor query in time.
var ErrSensorTimeout = errors.New("robot: sensor read timed out")

// Create drives an iRobot Create over its serial Open Interface.
type Create struct {
	mu    sync.Mutex
	port  io.ReadWriteCloser
	sleep func(time.Duration)
	log   *slog.Logger
}

// Open connects to a Create on the given serial port and puts it in safe mode.
func Open(path string) (*Create, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	if err := p.SetReadTimeout(ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	c := New(p)
	if err := c.Start(); err != nil {
		p.Close()
		return nil, err
	}
	c.log.Info("connected", "port", path, "baud", DefaultBaud)
	return c, nil
}

// New wraps an already open transport. Start must be called before driving.
func New(port io.ReadWriteCloser) *Create {
	return &Create{
		port:  port,
		sleep: time.Sleep,
		log:   log.Component("create"),
	}
}

// Start wakes the Open Interface and enters safe mode.
func (c *Create) Start() error {
	if err := c.send(OpStart); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	c.sleep(StartupDelay)
	if err := c.send(OpSafe); err != nil {
		return fmt.Errorf("safe mode: %w", err)
	}
	return nil
}

// Bumpers queries sensor packet 7 and decodes the bump bits.
func (c *Create) Bumpers() (Bumpers, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.port.(interface{ ResetInputBuffer() error }); ok {
		r.ResetInputBuffer()
	}
	if _, err := c.port.Write([]byte{OpSensors, PacketBumpsWheelDrops}); err != nil {
		return Bumpers{}, fmt.Errorf("sensor request: %w", err)
	}

	buf := make([]byte, 1)
	if err := readFull(c.port, buf); err != nil {
		return Bumpers{}, fmt.Errorf("sensor packet %d: %w", PacketBumpsWheelDrops, err)
	}
	return Bumpers{
		Left:  buf[0]&bitBumpLeft != 0,
		Right: buf[0]&bitBumpRight != 0,
	}, nil
}

// Drive moves at speed cm/s while turning at turnRate deg/s.
func (c *Create) Drive(speed, turnRate float64) error {
	velocity, radius := DriveParams(speed, turnRate)
	return c.drive(velocity, radius)
}

// Stop halts both wheels.
func (c *Create) Stop() error {
	return c.drive(0, RadiusStraight)
}

// TurnInPlace rotates degrees at rate deg/s, then stops.
// Negative degrees turn clockwise.
func (c *Create) TurnInPlace(degrees, rate float64) error {
	if degrees == 0 || rate == 0 {
		return nil
	}
	rate = math.Abs(rate)
	if degrees < 0 {
		rate = -rate
	}
	if err := c.Drive(0, rate); err != nil {
		return err
	}
	c.sleep(time.Duration(math.Abs(degrees/rate) * float64(time.Second)))
	return c.Stop()
}

// Close returns the base to passive mode and closes the port.
func (c *Create) Close() error {
	c.send(OpStart)
	return c.port.Close()
}

func (c *Create) drive(velocity, radius int16) error {
	msg := make([]byte, 5)
	msg[0] = OpDrive
	binary.BigEndian.PutUint16(msg[1:3], uint16(velocity))
	binary.BigEndian.PutUint16(msg[3:5], uint16(radius))
	if err := c.send(msg...); err != nil {
		return fmt.Errorf("drive v=%d r=%d: %w", velocity, radius, err)
	}
	return nil
}

func (c *Create) send(b ...byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.port.Write(b)
	return err
}

// DriveParams converts cm/s and deg/s into Open Interface velocity and radius.
// Pure rotation spins in place; pure translation drives straight; both
// together follow an arc of radius v/ω.
func DriveParams(speed, turnRate float64) (velocity, radius int16) {
	switch {
	case speed == 0 && turnRate == 0:
		return 0, RadiusStraight
	case speed == 0:
		omega := turnRate * math.Pi / 180
		v := math.Abs(omega) * WheelSpan / 2
		if omega >= 0 {
			return clampVelocity(v), RadiusCCW
		}
		return clampVelocity(v), RadiusCW
	case turnRate == 0:
		return clampVelocity(speed * 10), RadiusStraight
	default:
		v := speed * 10
		omega := turnRate * math.Pi / 180
		r := v / omega
		if math.Abs(r) > MaxRadius {
			return clampVelocity(v), RadiusStraight
		}
		return clampVelocity(v), int16(math.Round(r))
	}
}

func clampVelocity(v float64) int16 {
	v = math.Round(v)
	if v > MaxVelocity {
		return MaxVelocity
	}
	if v < -MaxVelocity {
		return -MaxVelocity
	}
	return int16(v)
}

// readFull fills buf, treating a zero-byte read as a timeout.
// Serial ports report an expired read deadline as (0, nil).
func readFull(r io.Reader, buf []byte) error {
	for n := 0; n < len(buf); {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return err
		}
		if m == 0 {
			return ErrSensorTimeout
		}
	}
	return nil
}

package telemetry

import "errors"

// Odometry is the message forwarded downstream once per unpaused frame end.
// Heading, Pitch and Roll are the placement orientation in degrees.
type Odometry struct {
	Speed            float32 `json:"speed"`
	AccX             float32 `json:"acc_x"`
	AccY             float32 `json:"acc_y"`
	AccZ             float32 `json:"acc_z"`
	RPM              float32 `json:"rpm"`
	Gear             int32   `json:"gear"`
	EngineRunning    bool    `json:"engine_running"`
	TrailerConnected bool    `json:"trailer_connected"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Z                float64 `json:"z"`
	Heading          float32 `json:"heading"`
	Pitch            float32 `json:"pitch"`
	Roll             float32 `json:"roll"`
	ParkingBrake     bool    `json:"parking_brake"`
}

// OdometryFrom builds the downstream message for s. Unlike the log record,
// the placement orientation is scaled to degrees here.
func OdometryFrom(s *Snapshot) Odometry {
	deg := s.Placement.Orientation.Degrees()
	return Odometry{
		Speed:            s.Speed,
		AccX:             s.Acceleration.X,
		AccY:             s.Acceleration.Y,
		AccZ:             s.Acceleration.Z,
		RPM:              s.RPM,
		Gear:             s.Gear,
		EngineRunning:    s.EngineRunning,
		TrailerConnected: s.TrailerConnected,
		X:                s.Placement.Position.X,
		Y:                s.Placement.Position.Y,
		Z:                s.Placement.Position.Z,
		Heading:          deg.Heading,
		Pitch:            deg.Pitch,
		Roll:             deg.Roll,
		ParkingBrake:     s.ParkingBrake,
	}
}

// Publisher forwards odometry to a downstream consumer.
type Publisher interface {
	// SendOdometry queues one message. It must not block on the consumer.
	SendOdometry(o Odometry) error
	// SpinSome processes whatever publisher work is pending without blocking.
	SpinSome()
}

// Publishers fans every call out to ps. With no publishers it discards everything.
func Publishers(ps ...Publisher) Publisher {
	return multiPublisher(ps)
}

type multiPublisher []Publisher

func (m multiPublisher) SendOdometry(o Odometry) error {
	var errs []error
	for _, p := range m {
		if err := p.SendOdometry(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) SpinSome() {
	for _, p := range m {
		p.SpinSome()
	}
}

// Package publish streams finalized spawn commands to NATS. Sink wraps any
// sim.Simulator and publishes every scheduled trip, in submission order,
// before handing the spawner to the wrapped simulator.
package publish

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/demand-sim/demand-sim/sim"
)

const (
	// HeaderScenarioID carries sim.Scenario.ID on every message.
	HeaderScenarioID = "Scenario-Id"
	// HeaderSeq is the trip's position in submission order, from 0.
	HeaderSeq = "Seq"
)

// Conn is the subset of *nats.Conn the sink needs.
type Conn interface {
	PublishMsg(m *nats.Msg) error
	Flush() error
}

// Metrics is optionally implemented by a metrics collector.
type Metrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// Connect dials NATS, reporting connection state to m when non-nil.
func Connect(url string, m Metrics) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("demand-sim"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logrus.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logrus.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logrus.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return nc, nil
}

// TripMessage is the JSON body of one published trip.
type TripMessage struct {
	Seq                int          `json:"seq"`
	Scenario           string       `json:"scenario"`
	Person             sim.PersonID `json:"person"`
	Kind               string       `json:"kind"`
	Departure          string       `json:"departure"`
	Mode               string       `json:"mode"`
	Purpose            string       `json:"purpose"`
	Start              string       `json:"start"`
	End                string       `json:"end"`
	Modified           bool         `json:"modified,omitempty"`
	CancellationReason *string      `json:"cancellationReason,omitempty"`
	Spec               sim.TripSpec `json:"spec"`
}

// Sink decorates a sim.Simulator. Everything except FlushSpawner and
// SetName passes straight through.
type Sink struct {
	sim.Simulator

	conn       Conn
	prefix     string
	mapName    string
	scenario   string
	scenarioID uuid.UUID
	metrics    Metrics

	published int
	err       error
}

// NewSink publishes trips for scenario s under <prefix>.<map>.<scenario>.
// metrics may be nil.
func NewSink(inner sim.Simulator, conn Conn, prefix string, s *sim.Scenario, metrics Metrics) *Sink {
	return &Sink{
		Simulator:  inner,
		conn:       conn,
		prefix:     prefix,
		mapName:    s.MapName,
		scenario:   s.ScenarioName,
		scenarioID: s.ID(),
		metrics:    metrics,
	}
}

// Subject is where this sink publishes.
func (k *Sink) Subject() string {
	return fmt.Sprintf("%s.%s.%s", k.prefix, subjectToken(k.mapName), subjectToken(k.scenario))
}

func (k *Sink) SetName(name string) {
	k.scenario = name
	k.Simulator.SetName(name)
}

// FlushSpawner publishes every trip, then flushes to the wrapped simulator
// even if publishing failed. The first publish error is kept in Err.
func (k *Sink) FlushSpawner(spawner *sim.TripSpawner) {
	subject := k.Subject()
	failed := 0
	for i, st := range spawner.Trips() {
		if err := k.publish(subject, i, st); err != nil {
			failed++
			if k.err == nil {
				k.err = fmt.Errorf("publishing trip %d to %s: %w", i, subject, err)
			}
			continue
		}
		k.published++
	}
	if err := k.conn.Flush(); err != nil && k.err == nil {
		k.err = fmt.Errorf("flushing nats: %w", err)
	}
	if failed > 0 {
		logrus.Warnf("%d of %d trips failed to publish to %s", failed, len(spawner.Trips()), subject)
	}
	logrus.Infof("Published %d trips to %s", k.published, subject)
	k.Simulator.FlushSpawner(spawner)
}

func (k *Sink) publish(subject string, seq int, st sim.ScheduledTrip) error {
	body, err := json.Marshal(TripMessage{
		Seq:                seq,
		Scenario:           k.scenario,
		Person:             st.Person,
		Kind:               st.Spec.Kind(),
		Departure:          st.Info.Departure.String(),
		Mode:               st.Info.Mode.String(),
		Purpose:            st.Info.Purpose.String(),
		Start:              st.Info.Start.String(),
		End:                st.Info.End.String(),
		Modified:           st.Info.Modified,
		CancellationReason: st.Info.CancellationReason,
		Spec:               st.Spec,
	})
	if err != nil {
		return err
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(HeaderScenarioID, k.scenarioID.String())
	msg.Header.Set(HeaderSeq, strconv.Itoa(seq))
	msg.Data = body

	start := time.Now()
	err = k.conn.PublishMsg(msg)
	if k.metrics != nil {
		k.metrics.PublishObserve(time.Since(start))
		if err != nil {
			k.metrics.NATSPublishErrInc()
		} else {
			k.metrics.NATSPublishedInc()
		}
	}
	return err
}

// Published counts trips successfully handed to NATS.
func (k *Sink) Published() int { return k.published }

// Err is the first publishing error, if any.
func (k *Sink) Err() error { return k.err }

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

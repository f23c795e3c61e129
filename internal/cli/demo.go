package cli

import (
	"context"
	"math"
	"time"

	"github.com/aretw0/vizkit"
	"github.com/aretw0/vizkit/pkg/adapters/memory"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	"github.com/aretw0/vizkit/pkg/value"
)

var demoTypes = []codec.TypeDef{
	{Name: "/demo/Pose", Kind: codec.KindRecord, Fields: []codec.FieldDef{
		{Name: "x", Type: "double"},
		{Name: "y", Type: "double"},
		{Name: "heading", Type: "double"},
	}},
	{Name: "/demo/Status", Kind: codec.KindRecord, Fields: []codec.FieldDef{
		{Name: "mode", Type: "string"},
		{Name: "count", Type: "int"},
		{Name: "stamp", Type: "/base/Time"},
		{Name: "tags", Type: "[string]"},
	}},
}

// Demo is a simulated task moving in a circle whose radius follows the
// "setpoint" port.
type Demo struct {
	Task *memory.Task

	codec    *codec.Codec
	pose     *memory.Port
	status   *memory.Port
	setpoint ports.Reader
	// setpointPort republishes the current radius so new readers see it.
	setpointPort *memory.Port
	radius   float64
	count    int64
}

// NewDemo registers the demo types in kit and builds the task.
func NewDemo(kit *codec.Typekit, c *codec.Codec) (*Demo, error) {
	if err := kit.Register(demoTypes...); err != nil {
		return nil, err
	}
	d := &Demo{
		Task:   memory.NewTask("demo"),
		codec:  c,
		radius: 1,
	}
	d.pose = d.Task.AddPort("pose", "/demo/Pose", domain.DirectionOutput)
	d.status = d.Task.AddPort("status", "/demo/Status", domain.DirectionOutput)
	d.setpointPort = d.Task.AddPort("setpoint", "double", domain.DirectionInput)

	r, err := d.setpointPort.NewReader()
	if err != nil {
		return nil, err
	}
	d.setpoint = r
	for _, p := range []struct {
		name string
		v    value.Value
	}{
		{"gain", value.Scalar("double", 1.0)},
		{"label", value.Scalar("string", "circle")},
	} {
		raw, err := c.Encode(p.v)
		if err != nil {
			return nil, err
		}
		d.Task.AddProperty(p.name, p.v.TypeName(), raw)
	}
	return d, nil
}

// Watches lists the port trees shown for the demo.
func (d *Demo) Watches() []vizkit.Watch {
	return []vizkit.Watch{
		{Task: "demo", Port: "pose", ReadOnly: true},
		{Task: "demo", Port: "status"},
		{Task: "demo", Port: "setpoint"},
	}
}

// Step publishes the samples for time now.
func (d *Demo) Step(now time.Time) error {
	if raw, ok, err := d.setpoint.Read(); err == nil && ok {
		if v, err := d.codec.Decode(raw, "double"); err == nil {
			d.radius, _ = v.Interface().(float64)
		}
	}
	d.count++

	angle := float64(now.UnixMilli()%10000) / 10000 * 2 * math.Pi
	pose := value.Record("/demo/Pose",
		value.F("x", value.Scalar("double", d.radius*math.Cos(angle))),
		value.F("y", value.Scalar("double", d.radius*math.Sin(angle))),
		value.F("heading", value.Scalar("double", angle+math.Pi/2)),
	)
	mode := "moving"
	if d.radius == 0 {
		mode = "idle"
	}
	tags := []value.Value{value.Scalar("string", "sim")}
	if d.count%5 == 0 {
		tags = append(tags, value.Scalar("string", "checkpoint"))
	}
	status := value.Record("/demo/Status",
		value.F("mode", value.Scalar("string", mode)),
		value.F("count", value.Scalar("int", d.count)),
		value.F("stamp", value.Scalar("/base/Time", now)),
		value.F("tags", value.Array("[string]", tags...)),
	)

	for _, out := range []struct {
		port *memory.Port
		v    value.Value
	}{{d.pose, pose}, {d.status, status}, {d.setpointPort, value.Scalar("double", d.radius)}} {
		raw, err := d.codec.Encode(out.v)
		if err != nil {
			return err
		}
		out.port.Emit(raw)
	}
	return nil
}

// Run steps the demo every period until ctx is done.
func (d *Demo) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_ = d.Step(now)
		}
	}
}

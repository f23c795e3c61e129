package ports

import (
	"testing"

	"github.com/aretw0/vizkit/pkg/domain"
)

// RegistryFixture drives a TaskRegistry implementation through the contract suite.
// Publish must make a live task visible with an input port "in" and an output port
// "out" (both of type "int32") and a property "gain" of type "float64".
type RegistryFixture struct {
	Registry TaskRegistry
	Publish  func(t *testing.T, name string)
	Withdraw func(t *testing.T, name string)
	// Emit delivers a raw sample on a port the way the task itself would.
	Emit func(t *testing.T, task, port string, raw []byte)
}

// RunTaskRegistryContract verifies that a TaskRegistry adapter honours the ports contract.
func RunTaskRegistryContract(t *testing.T, f RegistryFixture) {
	t.Helper()

	if _, ok := f.Registry.FindTask("contract_task"); ok {
		t.Fatal("expected unknown task to be unresolvable")
	}

	f.Publish(t, "contract_task")
	task, ok := f.Registry.FindTask("contract_task")
	if !ok {
		t.Fatal("expected published task to resolve")
	}
	if task.Name() != "contract_task" {
		t.Errorf("Name() = %q", task.Name())
	}
	if task.Provenance() != domain.ProvenanceLive {
		t.Errorf("Provenance() = %q, want live", task.Provenance())
	}
	if task.ID() == "" {
		t.Error("ID() must not be empty")
	}
	firstID := task.ID()

	out, ok := task.Port("out")
	if !ok {
		t.Fatal("expected port out")
	}
	if out.TypeName() != "int32" || out.Direction() != domain.DirectionOutput {
		t.Errorf("port out = (%q, %q)", out.TypeName(), out.Direction())
	}
	if _, ok := task.Port("nope"); ok {
		t.Error("expected unknown port to be unresolvable")
	}

	t.Run("Reader", func(t *testing.T) {
		reader, err := out.NewReader()
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		defer reader.Close()

		if _, ok, err := reader.Read(); ok || err != nil {
			t.Fatalf("expected no sample before emit, got ok=%v err=%v", ok, err)
		}
		f.Emit(t, "contract_task", "out", []byte{0x01})
		raw, ok, err := reader.Read()
		if err != nil || !ok || string(raw) != "\x01" {
			t.Fatalf("Read after emit = (%x, %v, %v)", raw, ok, err)
		}
		if _, ok, _ := reader.Read(); ok {
			t.Error("a sample must be delivered once")
		}
	})

	t.Run("Writer", func(t *testing.T) {
		in, ok := task.Port("in")
		if !ok {
			t.Fatal("expected port in")
		}
		reader, err := in.NewReader()
		if err != nil {
			t.Fatalf("NewReader(in): %v", err)
		}
		defer reader.Close()
		writer, err := in.NewWriter()
		if err != nil {
			t.Fatalf("NewWriter(in): %v", err)
		}
		defer writer.Close()

		if err := writer.Write([]byte{0x02}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		raw, ok, err := reader.Read()
		if err != nil || !ok || string(raw) != "\x02" {
			t.Fatalf("Read after write = (%x, %v, %v)", raw, ok, err)
		}
	})

	t.Run("Property", func(t *testing.T) {
		prop, ok := task.Property("gain")
		if !ok {
			t.Fatal("expected property gain")
		}
		if prop.TypeName() != "float64" {
			t.Errorf("TypeName() = %q", prop.TypeName())
		}
		if err := prop.Write([]byte{0x03}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		raw, err := prop.Read()
		if err != nil || string(raw) != "\x03" {
			t.Fatalf("Read = (%x, %v)", raw, err)
		}
	})

	f.Withdraw(t, "contract_task")
	if _, ok := f.Registry.FindTask("contract_task"); ok {
		t.Fatal("expected withdrawn task to be unresolvable")
	}

	f.Publish(t, "contract_task")
	again, ok := f.Registry.FindTask("contract_task")
	if !ok {
		t.Fatal("expected republished task to resolve")
	}
	if again.ID() == firstID {
		t.Error("a restarted task must report a new ID")
	}
}

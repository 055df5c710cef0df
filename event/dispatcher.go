package event

import (
	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/collection"
)

// Event types dispatched inside one process.
const (
	// DataUpdate is dispatched by a manager for its own writes.
	DataUpdate = "dataUpdate"
	// CrossTabSync is dispatched by a transport for every broadcast.
	CrossTabSync = "cross-tab-sync"
)

// Event carries a full collection snapshot.
type Event struct {
	Type   string
	Key    string
	Data   collection.Collection
	Origin string
}

// Dispatcher is the process wide event target shared by every manager and
// transport living in the same process.
type Dispatcher struct {
	reg *Registry[Event]
}

func NewDispatcher(l logging.Logger) *Dispatcher {
	return &Dispatcher{reg: NewRegistry[Event](l)}
}

// On registers fn for events of type typ.
func (d *Dispatcher) On(typ string, fn func(Event)) func() {
	return d.reg.Add(typ, fn)
}

// Dispatch delivers e synchronously to every handler of e.Type.
func (d *Dispatcher) Dispatch(e Event) {
	d.reg.Notify(e.Type, e)
}

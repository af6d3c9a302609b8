package catalog

const (
	EventCreated = "producto_creado"
	EventUpdated = "producto_actualizado"
	EventDeleted = "producto_eliminado"
)

// Event is what subscribers receive after a successful mutation.
type Event struct {
	Name string `json:"evento"`
	Data any    `json:"data"`
}

type DeletedRef struct {
	ID int64 `json:"id"`
}

// Notifier receives every catalog event. Implementations must return without
// waiting on delivery.
type Notifier interface {
	Notify(ev Event)
}

package editor

// EventKind classifies registry lifecycle events.
type EventKind int

const (
	EventDocumentOpened EventKind = iota
	EventDocumentClosed
	EventActiveChanged
	EventBytesUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventDocumentOpened:
		return "DocumentOpened"
	case EventDocumentClosed:
		return "DocumentClosed"
	case EventActiveChanged:
		return "ActiveChanged"
	case EventBytesUpdated:
		return "BytesUpdated"
	}
	return "Unknown"
}

// Event is a registry lifecycle notification. For ActiveChanged, Doc is the
// newly active document (nil when the registry emptied) and Index its tab
// position (-1 when none).
type Event struct {
	Kind  EventKind
	Doc   *Document
	Index int
}

// EventSink receives registry events. The UI layer and the render
// coordinator subscribe through it; the core never calls back into its
// consumers any other way.
type EventSink interface {
	HandleEvent(Event)
}

// EventFunc adapts a function to the EventSink interface.
type EventFunc func(Event)

func (f EventFunc) HandleEvent(e Event) { f(e) }

type nopSink struct{}

func (nopSink) HandleEvent(Event) {}

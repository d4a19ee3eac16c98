// Package progress decouples the pipeline from any particular UI: stages
// push events onto a caller-owned channel and whoever owns the channel
// decides how to present them.
package progress

// Stage names emitted by the pipeline, in order of appearance.
const (
	StageFetch    = "fetch"
	StageClassify = "classify"
	StageWindows  = "windows"
	StageScore    = "score"
	StageSelect   = "select"
	StageCut      = "cut"
)

type Event struct {
	Stage   string
	Message string
	Done    int
	Total   int
}

// Emit pushes e without blocking. A nil channel or a slow consumer drops
// the event; progress reporting must never stall the pipeline.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
	}
}

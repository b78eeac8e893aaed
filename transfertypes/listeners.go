package transfertypes

// InitFunc receives the request identifier assigned to a transfer. It is
// called before any progress or result callback for that transfer.
type InitFunc func(requestID string)

// ProgressFunc receives the bytes processed so far and the total.
type ProgressFunc func(processedBytes, targetBytes int64)

// ResultFunc receives the terminal outcome of a transfer; nil means success.
type ResultFunc func(err error)

// Listeners is the set of optional callbacks attached to one transfer.
// A nil field means the caller is not interested in that notification.
type Listeners struct {
	Init     InitFunc
	Progress ProgressFunc
	Result   ResultFunc
}

// NotifyInit calls Init if present.
func (l Listeners) NotifyInit(requestID string) {
	if l.Init != nil {
		l.Init(requestID)
	}
}

// NotifyProgress calls Progress if present.
func (l Listeners) NotifyProgress(processed, target int64) {
	if l.Progress != nil {
		l.Progress(processed, target)
	}
}

// NotifyResult calls Result if present.
func (l Listeners) NotifyResult(err error) {
	if l.Result != nil {
		l.Result(err)
	}
}

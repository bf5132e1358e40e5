package llm

import "sync"

// Mode names the strategy or operation behind a diagnostic record.
type Mode string

const (
	ModeSDK         Mode = "sdk"
	ModeDirectHTTP  Mode = "direct-http"
	ModeDefaultSDK  Mode = "default-sdk"
	ModeFetchModels Mode = "fetch-models"
)

// Attempt describes the most recent request made on the caller's behalf.
type Attempt struct {
	Mode  Mode   `json:"last_mode"`
	URL   string `json:"last_url"`
	Error string `json:"last_error"`
}

// Recorder receives advisory diagnostics. Recording never changes control flow.
type Recorder interface {
	Record(a Attempt)
}

// Diagnostics keeps the last recorded attempt. The zero value is ready to use.
type Diagnostics struct {
	mu   sync.RWMutex
	last Attempt
}

// Record implements Recorder.
func (d *Diagnostics) Record(a Attempt) {
	d.mu.Lock()
	d.last = a
	d.mu.Unlock()
}

// Last returns the most recent attempt.
func (d *Diagnostics) Last() Attempt {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

func record(r Recorder, mode Mode, url string, err error) {
	if r == nil {
		return
	}
	a := Attempt{Mode: mode, URL: url}
	if err != nil {
		a.Error = err.Error()
	}
	r.Record(a)
}

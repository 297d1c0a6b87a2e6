package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
)

const (
	jsonEpochPath          = "epoch.json"
	jsonValidatorsPath     = "validators.json"
	jsonNextValidatorsPath = "validators.next.json"
)

type jsonEpoch struct {
	Epoch uint64 `json:"epoch"`
	State uint8  `json:"state"`
}

// JSONSource is a Source backed by JSON files in a directory. Operators can
// edit the files by hand.
type JSONSource struct {
	l    sync.Mutex
	base string
}

// NewJSONSource creates a JSONSource reading from base.
func NewJSONSource(base string) *JSONSource {
	return &JSONSource{
		base: base,
	}
}

// Epoch implements the Source interface. The state is stored as the
// registry's numeric code.
func (j *JSONSource) Epoch(ctx context.Context) (uint64, epoch.NetworkEpochState, error) {
	j.l.Lock()
	defer j.l.Unlock()

	var e jsonEpoch
	if err := j.read(jsonEpochPath, &e); err != nil {
		return 0, epoch.Unknown, err
	}

	return e.Epoch, epoch.FromCode(e.State), nil
}

// CurrentValidators implements the Source interface.
func (j *JSONSource) CurrentValidators(ctx context.Context) ([]peers.RawDescriptor, error) {
	j.l.Lock()
	defer j.l.Unlock()

	var descs []peers.RawDescriptor
	if err := j.read(jsonValidatorsPath, &descs); err != nil {
		return nil, err
	}
	return descs, nil
}

// NextValidators implements the Source interface. A missing file means there
// is no next roster.
func (j *JSONSource) NextValidators(ctx context.Context) ([]peers.RawDescriptor, error) {
	j.l.Lock()
	defer j.l.Unlock()

	var descs []peers.RawDescriptor
	err := j.read(jsonNextValidatorsPath, &descs)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return descs, nil
}

// WriteEpoch persists the epoch number and state code.
func (j *JSONSource) WriteEpoch(e uint64, state epoch.NetworkEpochState) error {
	j.l.Lock()
	defer j.l.Unlock()

	return j.write(jsonEpochPath, jsonEpoch{Epoch: e, State: state.Code()})
}

// WriteValidators persists the current roster, or the next one if next is
// set.
func (j *JSONSource) WriteValidators(descs []peers.RawDescriptor, next bool) error {
	j.l.Lock()
	defer j.l.Unlock()

	path := jsonValidatorsPath
	if next {
		path = jsonNextValidatorsPath
	}
	return j.write(path, descs)
}

func (j *JSONSource) read(name string, v interface{}) error {
	buf, err := ioutil.ReadFile(filepath.Join(j.base, name))
	if err != nil {
		return err
	}

	// An empty file decodes to the zero value
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	return dec.Decode(v)
}

func (j *JSONSource) write(name string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	if err := os.MkdirAll(j.base, 0755); err != nil {
		return err
	}

	return ioutil.WriteFile(filepath.Join(j.base, name), buf.Bytes(), 0644)
}

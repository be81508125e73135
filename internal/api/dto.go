package api

import (
	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
)

type configureRequest struct {
	Command string `json:"command"`
}

type actionView struct {
	Name  string `json:"name"`
	Op    string `json:"op"`
	Kind  string `json:"kind,omitempty"`
	Value any    `json:"value,omitempty"`
}

type configureResponse struct {
	OK      bool         `json:"ok"`
	Batch   string       `json:"batch"`
	Actions []actionView `json:"actions"`
}

type experimentView struct {
	Name    string `json:"name"`
	Exists  bool   `json:"exists"`
	Enabled bool   `json:"enabled"`
	Kind    string `json:"kind,omitempty"`
	Value   any    `json:"value,omitempty"`
}

type listResponse struct {
	ETag        string           `json:"etag"`
	Experiments []experimentView `json:"experiments"`
}

func newActionView(a configure.Action) actionView {
	v := actionView{Name: a.Name, Op: a.Op.String()}
	if a.Value != nil {
		v.Kind = a.Value.Kind().String()
		v.Value = kv.Native(a.Value)
	}
	return v
}

func newExperimentView(name string, v kv.Value, exists bool) experimentView {
	view := experimentView{Name: name, Exists: exists}
	if exists && v != nil {
		view.Enabled = kv.Truthy(v)
		view.Kind = v.Kind().String()
		view.Value = kv.Native(v)
	}
	return view
}

func viewsFromStates(states []experiment.State) []experimentView {
	views := make([]experimentView, len(states))
	for i, st := range states {
		views[i] = newExperimentView(st.Name, st.Value, true)
	}
	return views
}

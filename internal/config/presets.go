package config

import "sort"

var Presets = map[string]*Params{
	"drag-race": {
		Mass: 10, TargetDistance: 500, AppliedForce: 150,
		Mode: "continuous", Dt: 0.01,
	},
	"stalemate": {
		Mass: 10, TargetDistance: 500, AppliedForce: 30,
		Mode: "continuous", Dt: 0.01,
	},
	"shove": {
		Mass: 10, TargetDistance: 500, AppliedForce: 150,
		Mode: "impulse", Dt: 0.01,
	},
	"timed-push": {
		Mass: 10, TargetDistance: 500, AppliedForce: 150,
		Mode: "timed", ModeDuration: 1.0, Dt: 0.01,
	},
	"push-zone": {
		Mass: 10, TargetDistance: 200, AppliedForce: 300,
		Mode: "distance-limited", ModeDistance: 50, Dt: 0.01,
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not
// exist. Callers may edit the copy freely.
func GetPreset(name string) *Params {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

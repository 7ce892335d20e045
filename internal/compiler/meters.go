package compiler

import (
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DefaultMeterKeys names the meter set installed when a document has no
// usable meter configuration.
var DefaultMeterKeys = [3]string{"trust", "rapport", "tension"}

var defaultMeterLabels = [3]string{"Trust", "Rapport", "Tension"}

// meterSpec is the loosely typed shape of one authored meter entry.
type meterSpec struct {
	Min   *float64 `mapstructure:"min"`
	Max   *float64 `mapstructure:"max"`
	Start *float64 `mapstructure:"start"`
}

// meters copies the document's meter config when it is well-formed, and
// installs the default set otherwise. A bare number is read as a start value.
func (b *build) meters(raw any) map[string]domain.MeterConfig {
	out := make(map[string]domain.MeterConfig)

	if obj, ok := asMap(raw); ok {
		for _, key := range sortedKeys(obj) {
			cfg, ok := b.meter(obj[key])
			if !ok {
				b.warn(WarnInvalidMeter, "", "meter %q ignored: not a valid meter config", key)
				continue
			}
			out[key] = cfg
		}
	}

	if len(out) > 0 {
		return out
	}
	if raw != nil {
		b.warn(WarnDefaultMeters, "", "no usable meter config; installing defaults")
	}
	for i, key := range DefaultMeterKeys {
		out[key] = withClampedStart(domain.MeterConfig{
			Min:   domain.DefaultMeterMin,
			Max:   domain.DefaultMeterMax,
			Start: b.c.defaultStarts[i],
			Label: defaultMeterLabels[i],
		})
	}
	return out
}

func (b *build) meter(raw any) (domain.MeterConfig, bool) {
	cfg := domain.MeterConfig{Min: domain.DefaultMeterMin, Max: domain.DefaultMeterMax}

	if start, ok := asNumber(raw); ok {
		cfg.Start = start
		return withClampedStart(cfg), true
	}

	obj, ok := asMap(raw)
	if !ok {
		return cfg, false
	}

	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == "label" {
			continue
		}
		fields[k] = normalizeNumber(v)
	}

	var spec meterSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &spec,
	})
	if err != nil {
		return cfg, false
	}
	if err := decoder.Decode(fields); err != nil {
		return cfg, false
	}

	if spec.Min != nil {
		cfg.Min = *spec.Min
	}
	if spec.Max != nil {
		cfg.Max = *spec.Max
	}
	if cfg.Min > cfg.Max {
		return cfg, false
	}
	cfg.Start = cfg.Min
	if spec.Start != nil {
		cfg.Start = *spec.Start
	}
	cfg.Label = b.c.text.Text(obj["label"])
	return withClampedStart(cfg), true
}

// normalizeNumber converts decoder-specific numeric types to float64 so the
// weakly typed decode sees one representation.
func normalizeNumber(v any) any {
	if f, ok := asNumber(v); ok {
		return f
	}
	return v
}

func withClampedStart(cfg domain.MeterConfig) domain.MeterConfig {
	cfg.Start = cfg.Clamp(cfg.Start)
	return cfg
}

// Package layering merges configuration snapshots ordered from strongest to
// weakest. A zero field in a stronger layer is filled from the next weaker
// layer that sets it; maps merge key by key.
package layering

import "reflect"

// Layer is a named snapshot, used for provenance.
type Layer[T any] struct {
	Name     string
	Snapshot T
}

// MergeLayers folds layers, strongest first, into a single value.
func MergeLayers[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	merged := reflect.New(reflect.TypeOf(&zero).Elem()).Elem()
	merged.Set(reflect.ValueOf(&layers[len(layers)-1]).Elem())
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(&layers[i]).Elem(), merged)
	}
	return merged.Interface().(T)
}

// Merge folds named layers and reports, per top-level field, which layer
// supplied the effective value. Fields left at zero are absent from the trace.
func Merge[T any](layers ...Layer[T]) (T, map[string]string) {
	snapshots := make([]T, len(layers))
	for i, layer := range layers {
		snapshots[i] = layer.Snapshot
	}
	merged := MergeLayers(snapshots...)

	trace := map[string]string{}
	value := reflect.ValueOf(merged)
	if value.Kind() != reflect.Struct {
		return merged, trace
	}
	for i := 0; i < value.NumField(); i++ {
		field := value.Type().Field(i)
		if !field.IsExported() || value.Field(i).IsZero() {
			continue
		}
		for _, layer := range layers {
			if !reflect.ValueOf(layer.Snapshot).Field(i).IsZero() {
				trace[field.Name] = layer.Name
				break
			}
		}
	}
	return merged, trace
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	switch strong.Kind() {
	case reflect.Struct:
		result := reflect.New(strong.Type()).Elem()
		result.Set(weak)
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(mergeValue(strong.Field(i), weak.Field(i)))
		}
		return result
	case reflect.Map:
		if strong.IsNil() {
			return weak
		}
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len()+weak.Len())
		for iter := weak.MapRange(); iter.Next(); {
			result.SetMapIndex(iter.Key(), iter.Value())
		}
		for iter := strong.MapRange(); iter.Next(); {
			result.SetMapIndex(iter.Key(), iter.Value())
		}
		return result
	default:
		if strong.IsZero() {
			return weak
		}
		return strong
	}
}

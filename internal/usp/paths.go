package usp

import (
	"sort"
	"strings"
)

// SplitParamPath splits "Device.WiFi.Radio.1.Channel" into ("Device.WiFi.Radio.1.", "Channel").
func SplitParamPath(path string) (objPath, param string) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", path
	}
	return path[:i+1], path[i+1:]
}

// GroupParamPaths groups flat parameter paths by object path:
// {"Device.X.A": "1", "Device.X.B": "2"} becomes {"Device.X.": {"A": "1", "B": "2"}}.
func GroupParamPaths(flat map[string]string) map[string]map[string]string {
	grouped := make(map[string]map[string]string)
	for path, value := range flat {
		obj, param := SplitParamPath(path)
		if grouped[obj] == nil {
			grouped[obj] = make(map[string]string)
		}
		grouped[obj][param] = value
	}
	return grouped
}

// FlattenParams is the inverse of GroupParamPaths.
func FlattenParams(grouped map[string]map[string]string) map[string]string {
	flat := make(map[string]string)
	for obj, params := range grouped {
		if obj != "" && !strings.HasSuffix(obj, ".") {
			obj += "."
		}
		for param, value := range params {
			flat[obj+param] = value
		}
	}
	return flat
}

// IsPartialPath reports whether path addresses an object rather than a parameter.
func IsPartialPath(path string) bool {
	return strings.HasSuffix(path, ".")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

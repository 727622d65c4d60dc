package dispatch

import "github.com/leengari/vaultdb/internal/vaulterrors"

func paramsInvalid(format string, args ...any) *vaulterrors.Error {
	return vaulterrors.New(vaulterrors.ParamsInvalid, format, args...)
}

func getString(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok {
		return "", paramsInvalid("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", paramsInvalid("field %q must be a string", key)
	}
	return s, nil
}

func getOptionalString(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getObject(data map[string]any, key string) (map[string]any, error) {
	v, ok := data[key]
	if !ok {
		return nil, paramsInvalid("missing field %q", key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, paramsInvalid("field %q must be an object", key)
	}
	return m, nil
}

func getOptionalObject(data map[string]any, key string) map[string]any {
	v, ok := data[key]
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func getNumber(data map[string]any, key string) (float64, error) {
	v, ok := data[key]
	if !ok {
		return 0, paramsInvalid("missing field %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, paramsInvalid("field %q must be a number", key)
	}
	return f, nil
}

func getOptionalNumber(data map[string]any, key string) (float64, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func getOptionalBool(data map[string]any, key string, def bool) bool {
	v, ok := data[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func getStringArray(data map[string]any, key string) ([]string, bool, error) {
	v, ok := data[key]
	if !ok {
		return nil, false, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false, paramsInvalid("field %q must be an array", key)
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, false, paramsInvalid("field %q must contain only strings", key)
		}
		out = append(out, s)
	}
	return out, true, nil
}

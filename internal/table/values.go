package table

import "github.com/leengari/vaultdb/internal/vaulterrors"

func unknownColumnErr(name string) error {
	return vaulterrors.New(vaulterrors.ParamsInvalid, "unknown column %q", name)
}

// valueToInt narrows a decoded JSON number to an int64 for byte/integer/
// long columns, rejecting fractional values and out-of-range bytes.
func valueToInt(c Column, raw any) (int64, error) {
	f, ok := raw.(float64)
	if !ok {
		return 0, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: expected a number", c.Name)
	}
	n := int64(f)
	if float64(n) != f {
		return 0, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: non-integral value", c.Name)
	}
	switch c.Kind {
	case KindByte:
		if n < 0 || n > 0xFF {
			return 0, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: byte out of range", c.Name)
		}
	case KindInteger:
		if n < -(1<<31) || n > (1<<31)-1 {
			return 0, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: integer out of range", c.Name)
		}
	}
	return n, nil
}

func valueToFloat(c Column, raw any) (float64, error) {
	f, ok := raw.(float64)
	if !ok {
		return 0, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: expected a number", c.Name)
	}
	return f, nil
}

func valueToString(c Column, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: expected a string", c.Name)
	}
	return s, nil
}

// writeColumnValue writes a single decoded JSON value into rec at c's
// offset, for non-string columns only; string columns require dynamic
// storage and are handled by the caller (insert/update).
func writeColumnValue(rec []byte, c Column, raw any) error {
	switch c.Kind {
	case KindByte:
		n, err := valueToInt(c, raw)
		if err != nil {
			return err
		}
		writeByte(rec, c, byte(n))
	case KindInteger:
		n, err := valueToInt(c, raw)
		if err != nil {
			return err
		}
		writeInteger(rec, c, int32(n))
	case KindLong:
		n, err := valueToInt(c, raw)
		if err != nil {
			return err
		}
		writeLong(rec, c, n)
	case KindFloat:
		f, err := valueToFloat(c, raw)
		if err != nil {
			return err
		}
		writeFloat(rec, c, float32(f))
	default:
		return vaulterrors.New(vaulterrors.Internal, "writeColumnValue called for string column %q", c.Name)
	}
	return nil
}

// readColumnValue reads a single column's value out of rec as the
// equivalent JSON-friendly Go value, for non-string columns.
func readColumnValue(rec []byte, c Column) any {
	switch c.Kind {
	case KindByte:
		return readByte(rec, c)
	case KindInteger:
		return readInteger(rec, c)
	case KindLong:
		return readLong(rec, c)
	case KindFloat:
		return readFloat(rec, c)
	default:
		return nil
	}
}

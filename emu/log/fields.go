package log

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex16
	FieldTypeInt
	FieldTypeUint
	FieldTypeFloat
	FieldTypeError
	FieldTypeDuration
	FieldTypeStringer
)

type ZField struct {
	Type FieldType
	Key  string

	// Only one of these is populated, depending on Type.
	String    string
	Integer   uint64
	Float     float64
	Duration  time.Duration
	Error     error
	Interface any
	Boolean   bool
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Boolean)
	case FieldTypeString:
		return f.String
	case FieldTypeUint:
		return strconv.FormatUint(f.Integer, 10)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Integer), 10)
	case FieldTypeFloat:
		return strconv.FormatFloat(f.Float, 'f', -1, 64)
	case FieldTypeHex16:
		return fmt.Sprintf("%04x", uint(f.Integer))
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeDuration:
		return f.Duration.String()
	case FieldTypeStringer:
		return f.Interface.(fmt.Stringer).String()
	}
	return ""
}

const maxZFields = 16

// EntryZ is a log entry built field by field and emitted by End. A nil
// *EntryZ is valid and does nothing.
type EntryZ struct {
	lvl Level
	mod Module
	msg string

	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{New: func() any { return new(EntryZ) }}

func newEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) add() *ZField {
	if z.zfidx == maxZFields {
		return &ZField{}
	}
	f := &z.zfbuf[z.zfidx]
	*f = ZField{}
	z.zfidx++
	return f
}

func (z *EntryZ) String(key, val string) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.String = FieldTypeString, key, val
	}
	return z
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Boolean = FieldTypeBool, key, val
	}
	return z
}

func (z *EntryZ) Int(key string, val int) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Integer = FieldTypeInt, key, uint64(val)
	}
	return z
}

func (z *EntryZ) Int32(key string, val int32) *EntryZ { return z.Int(key, int(val)) }

func (z *EntryZ) Uint(key string, val uint64) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Integer = FieldTypeUint, key, val
	}
	return z
}

func (z *EntryZ) Float(key string, val float64) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Float = FieldTypeFloat, key, val
	}
	return z
}

func (z *EntryZ) Hex16(key string, val uint16) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Integer = FieldTypeHex16, key, uint64(val)
	}
	return z
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Error = FieldTypeError, key, err
	}
	return z
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Duration = FieldTypeDuration, key, d
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		f := z.add()
		f.Type, f.Key, f.Interface = FieldTypeStringer, key, s
	}
	return z
}

// End emits the entry and releases it. The entry must not be used after.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)
	lvl, msg := z.lvl, z.msg

	clear(z.zfbuf[:z.zfidx])
	entryPool.Put(z)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case PanicLevel:
		entry.Panic(msg)
	}
}

package serialization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Header field numbers.
const (
	fieldVersion   protowire.Number = 1
	fieldCreatedAt protowire.Number = 2 // Unix nanoseconds
	fieldStep      protowire.Number = 3
	fieldLoss      protowire.Number = 4 // float32 bits
	fieldMetadata  protowire.Number = 5 // Repeated entry
	fieldTensor    protowire.Number = 6 // Repeated tensor

	fieldEntryKey   protowire.Number = 1
	fieldEntryValue protowire.Number = 2

	fieldTensorName   protowire.Number = 1
	fieldTensorOffset protowire.Number = 2
	fieldTensorLength protowire.Number = 3
)

// marshalHeader encodes h in protobuf wire format. Metadata entries are
// written in key order so equal headers encode identically.
func marshalHeader(h *Header) []byte {
	var b []byte
	if h.Version != "" {
		b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
		b = protowire.AppendString(b, h.Version)
	}
	if !h.CreatedAt.IsZero() {
		b = protowire.AppendTag(b, fieldCreatedAt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(h.CreatedAt.UnixNano()))
	}
	b = protowire.AppendTag(b, fieldStep, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(h.Step))
	if h.HasLoss {
		b = protowire.AppendTag(b, fieldLoss, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(h.Loss))
	}

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, fieldEntryKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, fieldEntryValue, protowire.BytesType)
		entry = protowire.AppendString(entry, h.Metadata[k])

		b = protowire.AppendTag(b, fieldMetadata, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}

	for _, t := range h.Tensors {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldTensorName, protowire.BytesType)
		msg = protowire.AppendString(msg, t.Name)
		msg = protowire.AppendTag(msg, fieldTensorOffset, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(t.Offset))
		msg = protowire.AppendTag(msg, fieldTensorLength, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(t.Length))

		b = protowire.AppendTag(b, fieldTensor, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	return b
}

// unmarshalHeader decodes a header. Unknown fields are skipped.
func unmarshalHeader(b []byte) (Header, error) {
	var h Header
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch {
		case num == fieldVersion && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(v)
			h.Version = s
			return n, nil
		case num == fieldCreatedAt && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			h.CreatedAt = time.Unix(0, protowire.DecodeZigZag(x)).UTC()
			return n, nil
		case num == fieldStep && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			h.Step = protowire.DecodeZigZag(x)
			return n, nil
		case num == fieldLoss && typ == protowire.Fixed32Type:
			x, n := protowire.ConsumeFixed32(v)
			h.Loss = math.Float32frombits(x)
			h.HasLoss = true
			return n, nil
		case num == fieldMetadata && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(v)
			if n < 0 {
				return n, nil
			}
			k, val, err := unmarshalEntry(msg)
			if err != nil {
				return 0, err
			}
			if h.Metadata == nil {
				h.Metadata = make(map[string]string)
			}
			h.Metadata[k] = val
			return n, nil
		case num == fieldTensor && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(v)
			if n < 0 {
				return n, nil
			}
			t, err := unmarshalTensorMeta(msg)
			if err != nil {
				return 0, err
			}
			h.Tensors = append(h.Tensors, t)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, v), nil
	})
	if err != nil {
		return Header{}, fmt.Errorf("failed to parse header: %w", err)
	}
	return h, nil
}

func unmarshalEntry(b []byte) (key, value string, err error) {
	err = walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, v), nil
		}
		s, n := protowire.ConsumeString(v)
		switch num {
		case fieldEntryKey:
			key = s
		case fieldEntryValue:
			value = s
		}
		return n, nil
	})
	return key, value, err
}

func unmarshalTensorMeta(b []byte) (TensorMeta, error) {
	var t TensorMeta
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch {
		case num == fieldTensorName && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(v)
			t.Name = s
			return n, nil
		case num == fieldTensorOffset && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			t.Offset = int64(x)
			return n, nil
		case num == fieldTensorLength && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			t.Length = int64(x)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, v), nil
	})
	return t, err
}

// walk calls field for every field of a wire-encoded message. field returns
// the number of bytes of v it consumed, or a negative protowire error code.
func walk(b []byte, field func(num protowire.Number, typ protowire.Type, v []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

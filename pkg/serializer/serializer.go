package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/valyala/bytebufferpool"
)

// Serializer 缓存值编解码
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name 用于日志
	Name() string
}

// ===============================
// JSON
// ===============================

type jsonSerializer struct{}

// NewJSON 创建 JSON 编解码器
func NewJSON() Serializer {
	return jsonSerializer{}
}

func (jsonSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonSerializer) Name() string { return "json" }

// ===============================
// Msgpack
// ===============================

// msgpackHandle RawToString 保证字符串解码为 string 而非 []byte
var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.MapType = reflect.TypeOf(map[string]any{})
	h.RawToString = true
	h.WriteExt = true
	return h
}

// buffers 编码缓冲池
var buffers bytebufferpool.Pool

type msgpackSerializer struct{}

// NewMsgpack 创建 msgpack 编解码器，结构体字段名沿用 json tag
func NewMsgpack() Serializer {
	return msgpackSerializer{}
}

func (msgpackSerializer) Marshal(v any) ([]byte, error) {
	buf := buffers.Get()
	defer buffers.Put(buf)

	if err := codec.NewEncoder(buf, msgpackHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode failed: %w", err)
	}

	// buf 会被复用，必须复制
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func (msgpackSerializer) Unmarshal(data []byte, v any) error {
	if err := codec.NewDecoder(bytes.NewReader(data), msgpackHandle).Decode(v); err != nil {
		return fmt.Errorf("msgpack decode failed: %w", err)
	}
	return nil
}

func (msgpackSerializer) Name() string { return "msgpack" }

// Default 缓存默认编解码器
func Default() Serializer {
	return NewMsgpack()
}

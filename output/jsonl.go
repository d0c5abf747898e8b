package output

import (
	"encoding/json"
	"io"
)

// JSONLWriter 逐行写 JSON 对象 (JSON Lines)
type JSONLWriter struct {
	encoder *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{encoder: json.NewEncoder(w)}
}

func (w *JSONLWriter) Write(v interface{}) error {
	return w.encoder.Encode(v)
}

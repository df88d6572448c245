package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Input is the request passed to the interpreter as one argument.
type Input struct {
	DataMap      map[string]string `json:"data_map"`
	FullContent  string            `json:"full_content"`
	ContentIndex int               `json:"content_index"`
}

// Output is the response the runner writes to OUTPUT_FILE.
type Output struct {
	DataMap      map[string]string `json:"data_map"`
	ContentIndex int               `json:"content_index"`
	NewContent   string            `json:"new_content"`
	ErrorMessage string            `json:"error_message"`
}

func encodeInput(dataMap map[string]string, fullContent string) ([]byte, error) {
	in := Input{
		DataMap:     maps.Clone(dataMap),
		FullContent: fullContent,
	}
	if in.DataMap == nil {
		in.DataMap = map[string]string{}
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}

// decodeOutput requires every response key to be present. Unknown keys are
// rejected so a mismatched runner is caught early.
func decodeOutput(data []byte) (*Output, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("response is empty")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, key := range []string{"data_map", "content_index", "new_content", "error_message"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("response missing %q", key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var out Output
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.DataMap == nil {
		out.DataMap = map[string]string{}
	}
	return &out, nil
}

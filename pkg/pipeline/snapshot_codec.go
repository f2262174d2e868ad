package pipeline

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeSnapshot serialises a materialised Record snapshot to
// protobuf wire bytes via structpb, for cross-process checkpoint
// export. Grounded on the teacher's io.go protobuf section
// (protojson/proto/dynamicpb converting Record data to protobuf);
// structpb.Value is used in place of the teacher's dynamicpb, since
// there is no fixed .proto schema for an arbitrary materialised
// snapshot — structpb is protobuf's own "any JSON-like value" type.
func EncodeSnapshot(records []map[string]any) ([]byte, error) {
	list := make([]any, len(records))
	for i, r := range records {
		list[i] = r
	}
	val, err := structpb.NewList(list)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encode snapshot: %w", err)
	}
	return proto.Marshal(val)
}

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot(data []byte) ([]map[string]any, error) {
	var list structpb.ListValue
	if err := proto.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("pipeline: decode snapshot: %w", err)
	}
	out := make([]map[string]any, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		m, ok := v.AsInterface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pipeline: decode snapshot: element is not a record")
		}
		out = append(out, m)
	}
	return out, nil
}

// EncodeSnapshotJSON is the human-readable counterpart to
// EncodeSnapshot, using protojson the same way the teacher's io.go
// does for debug/inspection output.
func EncodeSnapshotJSON(records []map[string]any) ([]byte, error) {
	list := make([]any, len(records))
	for i, r := range records {
		list[i] = r
	}
	val, err := structpb.NewList(list)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encode snapshot: %w", err)
	}
	return protojson.Marshal(val)
}

// Package events decodes Firestore change-event deliveries into
// dispatch-ready form.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Firestore trigger event types.
const (
	TypeDocumentCreate = "providers/cloud.firestore/eventTypes/document.create"
	TypeDocumentUpdate = "providers/cloud.firestore/eventTypes/document.update"
	TypeDocumentDelete = "providers/cloud.firestore/eventTypes/document.delete"
)

// TriggerPayload is the JSON body of a Firestore trigger delivery
// (legacy background-function shape, as pushed by Eventarc).
type TriggerPayload struct {
	Context EventContext `json:"context" validate:"required"`
	Data    ChangeData   `json:"data"`
}

// EventContext carries delivery metadata. The event ID is stable
// across redeliveries of the same logical event.
type EventContext struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType" validate:"required"`
	Resource  Resource  `json:"resource"`
	Timestamp time.Time `json:"timestamp"`
}

// Resource names the triggering document.
type Resource struct {
	Name string `json:"name" validate:"required"`
}

// ChangeData holds the before/after snapshots of the triggering
// document. OldValue is zero for creates, Value is zero for deletes.
type ChangeData struct {
	OldValue   DocumentValue `json:"oldValue"`
	Value      DocumentValue `json:"value"`
	UpdateMask UpdateMask    `json:"updateMask"`
}

// UpdateMask lists the fields changed by an update event.
type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

// DocumentValue is one document snapshot in wire form.
type DocumentValue struct {
	Name       string           `json:"name"`
	Fields     map[string]Value `json:"fields"`
	CreateTime time.Time        `json:"createTime"`
	UpdateTime time.Time        `json:"updateTime"`
}

// IsZero reports whether the snapshot is absent.
func (d DocumentValue) IsZero() bool {
	return d.Name == "" && len(d.Fields) == 0
}

// Data decodes the snapshot's typed fields into a plain document map.
func (d DocumentValue) Data() map[string]interface{} {
	if len(d.Fields) == 0 {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(d.Fields))
	for k, v := range d.Fields {
		out[k] = v.Interface()
	}
	return out
}

// Value is a single typed field value in wire form. Exactly one
// variant is set; integers arrive string-encoded.
type Value struct {
	NullValue      json.RawMessage `json:"nullValue,omitempty"`
	StringValue    *string         `json:"stringValue,omitempty"`
	IntegerValue   *string         `json:"integerValue,omitempty"`
	DoubleValue    *float64        `json:"doubleValue,omitempty"`
	BooleanValue   *bool           `json:"booleanValue,omitempty"`
	TimestampValue *time.Time      `json:"timestampValue,omitempty"`
	ReferenceValue *string         `json:"referenceValue,omitempty"`
	MapValue       *MapValue       `json:"mapValue,omitempty"`
	ArrayValue     *ArrayValue     `json:"arrayValue,omitempty"`
}

// MapValue is a nested document value.
type MapValue struct {
	Fields map[string]Value `json:"fields"`
}

// ArrayValue is a list value.
type ArrayValue struct {
	Values []Value `json:"values"`
}

// Interface converts the wire value to its plain Go representation.
func (v Value) Interface() interface{} {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return *v.IntegerValue
		}
		return n
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.TimestampValue != nil:
		return *v.TimestampValue
	case v.ReferenceValue != nil:
		return *v.ReferenceValue
	case v.MapValue != nil:
		out := make(map[string]interface{}, len(v.MapValue.Fields))
		for k, f := range v.MapValue.Fields {
			out[k] = f.Interface()
		}
		return out
	case v.ArrayValue != nil:
		out := make([]interface{}, len(v.ArrayValue.Values))
		for i, f := range v.ArrayValue.Values {
			out[i] = f.Interface()
		}
		return out
	default:
		return nil
	}
}

// Event is the decoded, dispatch-ready form of a trigger delivery.
type Event struct {
	ID      string
	Type    string
	Path    string
	Params  map[string]string
	Data    map[string]interface{}
	OldData map[string]interface{}
}

// FromPayload validates a trigger payload and decodes it into an
// Event. A delivery without an event ID gets a generated one (such a
// delivery cannot be deduplicated, matching the platform contract).
func FromPayload(p *TriggerPayload) (*Event, error) {
	if err := validator.New().Struct(p); err != nil {
		return nil, fmt.Errorf("invalid trigger payload: %w", err)
	}
	path, err := DocumentPath(p.Context.Resource.Name)
	if err != nil {
		return nil, err
	}
	id := p.Context.EventID
	if id == "" {
		id = uuid.NewString()
	}
	return &Event{
		ID:      id,
		Type:    p.Context.EventType,
		Path:    path,
		Data:    p.Data.Value.Data(),
		OldData: p.Data.OldValue.Data(),
	}, nil
}

// DocumentPath strips the database prefix from a full resource name,
// leaving the document path relative to the database root.
func DocumentPath(resourceName string) (string, error) {
	const marker = "/documents/"
	i := strings.Index(resourceName, marker)
	if i < 0 {
		return "", fmt.Errorf("resource name %q has no document path", resourceName)
	}
	path := resourceName[i+len(marker):]
	if path == "" {
		return "", fmt.Errorf("resource name %q has no document path", resourceName)
	}
	return path, nil
}

// MatchPattern matches a document path against a pattern such as
// "posts/{postId}/likes/{userId}", returning the extracted parameters.
func MatchPattern(pattern, path string) (map[string]string, bool) {
	want := strings.Split(pattern, "/")
	got := strings.Split(path, "/")
	if len(want) != len(got) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := seg[1 : len(seg)-1]
			if got[i] == "" {
				return nil, false
			}
			params[name] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

// Package models defines the item and execution types shared by all nodes.
package models

// Item is a single record flowing through a node. Nodes receive an ordered
// sequence of items and return an ordered sequence of output items, each
// tagged with the index of the input item it was produced from.
type Item struct {
	JSON       map[string]any        `json:"json"`
	Binary     map[string]BinaryData `json:"binary,omitempty"`
	PairedItem int                   `json:"paired_item"`
}

// BinaryData carries a base64-encoded binary payload attached to an item.
type BinaryData struct {
	Data     string `json:"data"` // base64
	MimeType string `json:"mime_type,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// NewItem creates an item paired with the given input index.
func NewItem(pairedItem int, payload map[string]any) Item {
	return Item{JSON: payload, PairedItem: pairedItem}
}

// ErrorItem builds the per-item error marker produced when continue-on-fail
// is enabled.
func ErrorItem(pairedItem int, err error) Item {
	return Item{
		JSON: map[string]any{
			"error":   err.Error(),
			"success": false,
		},
		PairedItem: pairedItem,
	}
}

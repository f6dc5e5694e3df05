package gdocai

import (
	"google.golang.org/protobuf/encoding/protojson"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// ToJSON renders a Document AI response as indented JSON for debugging.
func ToJSON(doc *documentaipb.Document) (string, error) {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

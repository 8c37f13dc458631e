package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// clouds are the frameworks the server pipeline knows how to drive.
var clouds = []string{"ec2", "azure", "gce", "oci", "aliyun"}

// schemaAnnotationKeys are the keys stripped from a schema for the
// bare "json" output style.
var schemaAnnotationKeys = []string{"description", "example"}

// pickSchemaStyle resolves the three mutually exclusive style flags,
// defaulting to annotated.
func pickSchemaStyle(asJSON, asRaw, asAnnotated bool) (string, error) {
	set := 0
	style := "annotated"
	if asJSON {
		set++
		style = "json"
	}
	if asRaw {
		set++
		style = "raw"
	}
	if asAnnotated {
		set++
		style = "annotated"
	}
	if set > 1 {
		return "", fmt.Errorf("--json, --raw and --annotated are mutually exclusive")
	}
	return style, nil
}

// renderSchema prints a job document schema in one of three styles:
// annotated keeps the server's descriptions and examples, json strips
// them down to the bare structure, raw dumps the schema verbatim.
func renderSchema(rt *runtime, body []byte, style string) error {
	switch style {
	case "annotated":
		rt.printer.Dict(body)
	case "json":
		stripped := stripSchemaAnnotations(body)
		var buf bytes.Buffer
		if err := json.Indent(&buf, stripped, "", "  "); err != nil {
			return fmt.Errorf("failed to render schema: %w", err)
		}
		rt.printer.Message(buf.String())
	case "raw":
		rt.printer.Message(string(body))
	default:
		return fmt.Errorf("unknown schema style %q, expected annotated, json or raw", style)
	}
	return nil
}

func stripSchemaAnnotations(body []byte) []byte {
	out := body
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		for _, annotation := range schemaAnnotationKeys {
			if value.Get(annotation).Exists() {
				out, _ = sjson.DeleteBytes(out, key.String()+"."+annotation)
			}
		}
		return true
	})
	return out
}

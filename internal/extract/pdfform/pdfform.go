// Package pdfform reads the values of filled AcroForm text fields, which is
// how a completed G-28 downloaded from USCIS carries its data. It walks
// /AcroForm → /Fields → /Kids with field-type inheritance and collects the
// partial names and /V values of terminal text fields.
package pdfform

import (
	"bytes"
	"fmt"
	"strings"

	"rsc.io/pdf"
)

// ReadFields returns a map of fully-qualified field name to value for every
// non-empty text field in the document. The map also carries each entry
// under its lowercased name so callers can match case-insensitively.
func ReadFields(data []byte) (fields map[string]string, err error) {
	// rsc.io/pdf panics on malformed files rather than returning errors.
	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = fmt.Errorf("read pdf form: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	acroForm := reader.Trailer().Key("Root").Key("AcroForm")
	if acroForm.Kind() != pdf.Dict {
		return nil, nil
	}

	fields = make(map[string]string)
	roots := acroForm.Key("Fields")
	for i := 0; i < roots.Len(); i++ {
		walk(roots.Index(i), "", "", fields)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// walk descends one field node. Partial names chain with dots; the /FT field
// type inherits down the /Kids tree.
func walk(node pdf.Value, parentName, parentType string, out map[string]string) {
	if node.Kind() != pdf.Dict {
		return
	}

	fieldType := parentType
	if ft := node.Key("FT"); ft.Kind() == pdf.Name {
		fieldType = ft.Name()
	}

	name := parentName
	if t := node.Key("T"); t.Kind() == pdf.String {
		partial := t.Text()
		if name != "" {
			name = name + "." + partial
		} else {
			name = partial
		}
	}

	kids := node.Key("Kids")
	if kids.Kind() == pdf.Array && kids.Len() > 0 {
		for i := 0; i < kids.Len(); i++ {
			walk(kids.Index(i), name, fieldType, out)
		}
		return
	}

	// Terminal node: record text-field values only. Buttons and choices on
	// the G-28 (checkboxes, the state dropdown) use /Name values that the
	// text mappings never reference.
	if fieldType != "Tx" || name == "" {
		return
	}
	if v := node.Key("V"); v.Kind() == pdf.String {
		value := strings.TrimSpace(v.Text())
		if value == "" {
			return
		}
		out[name] = value
		out[strings.ToLower(name)] = value
		// USCIS forms qualify names with form/page prefixes
		// ("form1[0].Page1[0].Pt1Line2a_FamilyName[0]"); index the leaf
		// too since the mappings use the leaf name.
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			leaf := name[i+1:]
			out[leaf] = value
			out[strings.ToLower(leaf)] = value
		}
	}
}

package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExtraProduct separately priced add-on on a plain product line.
type ExtraProduct struct {
	Code       int
	PriceGross int64
}

// LineMeta selection detail of a line, validated when the line is loaded.
//   - Fries/Drink: meal components.
//   - Options: selected optional combo components.
//   - FreeChoices: zero-price add-ons (dips, sauces...).
//   - Extras: priced add-ons on a plain product line.
type LineMeta struct {
	Fries       *int
	Drink       *int
	Options     []int
	FreeChoices []int
	GoLarge     bool
	Extras      []ExtraProduct
}

// ParseLineMeta decodes the stored JSON bag. Malformed entries are dropped and reported in
// the returned notes; the rest of the metadata is still usable. Empty input yields an empty
// LineMeta.
func ParseLineMeta(raw []byte) (LineMeta, []string) {
	var meta LineMeta
	if len(raw) == 0 {
		return meta, nil
	}
	var bag map[string]any
	if err := json.Unmarshal(raw, &bag); err != nil {
		return meta, []string{fmt.Sprintf("meta: invalid json: %v", err)}
	}
	var notes []string

	if v, ok := bag["fries"]; ok && v != nil {
		if code, ok := asCode(v); ok {
			meta.Fries = &code
		} else {
			notes = append(notes, fmt.Sprintf("meta.fries: invalid code %v", v))
		}
	}
	if v, ok := bag["drink"]; ok && v != nil {
		if code, ok := asCode(v); ok {
			meta.Drink = &code
		} else {
			notes = append(notes, fmt.Sprintf("meta.drink: invalid code %v", v))
		}
	}

	var n []string
	meta.Options, n = asCodeList("options", bag["options"])
	notes = append(notes, n...)
	meta.FreeChoices, n = asCodeList("free_choices", bag["free_choices"])
	notes = append(notes, n...)

	// option_code: single free choice stored by older till builds.
	if v, ok := bag["option_code"]; ok && v != nil {
		if code, ok := asCode(v); ok {
			meta.FreeChoices = append(meta.FreeChoices, code)
		} else {
			notes = append(notes, fmt.Sprintf("meta.option_code: invalid code %v", v))
		}
	}

	meta.GoLarge = asBool(bag["go_large"])

	if v, ok := bag["extras_products"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			notes = append(notes, "meta.extras_products: not a list")
		}
		for i, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				notes = append(notes, fmt.Sprintf("meta.extras_products[%d]: not an object", i))
				continue
			}
			code, ok := asCode(obj["code"])
			if !ok {
				notes = append(notes, fmt.Sprintf("meta.extras_products[%d]: invalid code %v", i, obj["code"]))
				continue
			}
			price, _ := asInt(obj["price_gross"])
			if price < 0 {
				price = 0
			}
			meta.Extras = append(meta.Extras, ExtraProduct{Code: code, PriceGross: price})
		}
	}
	return meta, notes
}

// MarshalJSON writes the canonical stored form.
func (m LineMeta) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if m.Fries != nil {
		out["fries"] = *m.Fries
	}
	if m.Drink != nil {
		out["drink"] = *m.Drink
	}
	if len(m.Options) > 0 {
		out["options"] = m.Options
	}
	if len(m.FreeChoices) > 0 {
		out["free_choices"] = m.FreeChoices
	}
	if m.GoLarge {
		out["go_large"] = true
	}
	if len(m.Extras) > 0 {
		extras := make([]map[string]any, 0, len(m.Extras))
		for _, e := range m.Extras {
			extras = append(extras, map[string]any{"code": e.Code, "price_gross": e.PriceGross})
		}
		out["extras_products"] = extras
	}
	return json.Marshal(out)
}

func asCodeList(key string, v any) ([]int, []string) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		// A single scalar is accepted as a one-element list.
		if code, ok := asCode(v); ok {
			return []int{code}, nil
		}
		return nil, []string{fmt.Sprintf("meta.%s: not a list", key)}
	}
	var (
		codes []int
		notes []string
	)
	for i, item := range list {
		code, ok := asCode(item)
		if !ok {
			notes = append(notes, fmt.Sprintf("meta.%s[%d]: invalid code %v", key, i, item))
			continue
		}
		codes = append(codes, code)
	}
	return codes, notes
}

// asCode accepts positive integers given as JSON numbers or numeric strings.
func asCode(v any) (int, bool) {
	n, ok := asInt(v)
	if !ok || n <= 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return false
	}
}

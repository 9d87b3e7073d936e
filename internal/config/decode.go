package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/miuitask/internal/auth"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/paths"
)

// parseTree decodes data into a loosely typed tree. Mappings come back as
// *Mapping in document order and numbers as int or float64.
func parseTree(data []byte, format paths.Format) (any, error) {
	switch format {
	case paths.FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		tree, err := readJSON(dec)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "parsing JSON"), errors.ErrParse)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, errors.Mark(errors.New("parsing JSON: unexpected data after top-level value"), errors.ErrParse)
		}
		return tree, nil
	case paths.FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "parsing YAML"), errors.ErrParse)
		}
		if doc.Kind == 0 {
			return nil, nil
		}
		tree, err := fromNode(&doc, map[*yaml.Node]bool{})
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "parsing YAML"), errors.ErrParse)
		}
		return tree, nil
	default:
		return nil, errors.Newf("unsupported format %q", format)
	}
}

// readJSON reads one value from the token stream.
func readJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errors.Newf("object key is %T, not string", kt)
				}
				val, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if err := closeJSON(dec, '}'); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if err := closeJSON(dec, ']'); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, errors.Newf("unexpected %q", rune(t))
		}
	case json.Number:
		return normalizeScalar(t), nil
	default:
		return tok, nil
	}
}

func closeJSON(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if tok != want {
		return errors.Newf("expected %q, got %v", rune(want), tok)
	}
	return nil
}

// fromNode converts a YAML node. Aliases are expanded and merge keys
// applied; explicit keys win over merged ones.
func fromNode(n *yaml.Node, visiting map[*yaml.Node]bool) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0], visiting)
	case yaml.AliasNode:
		if visiting[n.Alias] {
			return nil, errors.Newf("line %d: anchor %q value contains itself", n.Line, n.Value)
		}
		visiting[n.Alias] = true
		defer delete(visiting, n.Alias)
		return fromNode(n.Alias, visiting)
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c, visiting)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		return mappingFromNode(n, visiting)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return normalizeScalar(v), nil
	default:
		return nil, errors.Newf("line %d: unsupported YAML node", n.Line)
	}
}

func mappingFromNode(n *yaml.Node, visiting map[*yaml.Node]bool) (*Mapping, error) {
	m := NewMapping()
	explicit := map[string]bool{}

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Tag == "!!merge" {
			v, err := fromNode(valNode, visiting)
			if err != nil {
				return nil, err
			}
			srcs, err := mergeSources(v, keyNode.Line)
			if err != nil {
				return nil, err
			}
			for _, src := range srcs {
				src.Range(func(k string, v any) bool {
					if _, ok := m.Get(k); !ok {
						m.Set(k, v)
					}
					return true
				})
			}
			continue
		}

		k, err := fromNode(keyNode, visiting)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprint(k)
		if explicit[key] {
			return nil, errors.Newf("line %d: mapping key %q already defined", keyNode.Line, key)
		}
		explicit[key] = true

		v, err := fromNode(valNode, visiting)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	return m, nil
}

func mergeSources(v any, line int) ([]*Mapping, error) {
	switch t := v.(type) {
	case *Mapping:
		return []*Mapping{t}, nil
	case []any:
		out := make([]*Mapping, 0, len(t))
		for _, e := range t {
			m, ok := e.(*Mapping)
			if !ok {
				return nil, errors.Newf("line %d: merge value must be a mapping or a list of mappings", line)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, errors.Newf("line %d: merge value must be a mapping or a list of mappings", line)
	}
}

// normalizeScalar rewrites decoder-specific scalar types into the small set
// the schema validator and the mapstructure decoder understand.
func normalizeScalar(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

var (
	cookiesType    = reflect.TypeOf(auth.Cookies{})
	notifierType   = reflect.TypeOf(Notifier{})
	mappingType    = reflect.TypeOf(Mapping{})
	mappingPtrType = reflect.TypeOf(&Mapping{})
)

// mappingHook hands ordered mappings to *Mapping fields unchanged and
// flattens them one level for every other target.
func mappingHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	m, ok := data.(*Mapping)
	if !ok {
		return data, nil
	}
	if to == mappingType || to == mappingPtrType {
		return m.Clone(), nil
	}
	return m.shallow(), nil
}

// cookiesHook accepts the raw "k=v; k2=v2" form for cookie fields.
func cookiesHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != cookiesType {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	return auth.ParseCookies(s)
}

// notifierHook turns the string-or-bool notifier into a Notifier.
func notifierHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != notifierType {
		return data, nil
	}
	switch v := data.(type) {
	case Notifier:
		return v, nil
	case string:
		return NotifierName(v), nil
	case bool:
		return NotifierBool(v), nil
	case nil:
		return NotifierName(""), nil
	default:
		return nil, errors.Newf("notifier must be a string or boolean, got %T", data)
	}
}

func newDecoder(out any, md *mapstructure.Metadata) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(mappingHook, cookiesHook, notifierHook),
		ZeroFields: true,
		Metadata:   md,
		Result:     out,
		TagName:    "mapstructure",
	})
}

// decodeTree builds a Config from a validated tree. Every record starts from
// its defaults; keys present in the tree replace them. The result also lists
// the keys that matched no field and the passwords that were stored in
// plain text.
func decodeTree(tree *Mapping) (*Result, error) {
	cfg := Default()

	var md mapstructure.Metadata
	dec, err := newDecoder(cfg, &md)
	if err != nil {
		return nil, errors.Wrap(err, "creating decoder")
	}
	if err := dec.Decode(tree.shallow()); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding configuration"), errors.ErrValidation)
	}

	res := &Result{Config: cfg, Unknown: make([]string, 0, len(md.Unused))}
	for _, key := range md.Unused {
		if key != "accounts" {
			res.Unknown = append(res.Unknown, key)
		}
	}

	if raw, ok := tree.Get("accounts"); ok {
		if err := decodeAccounts(raw, res); err != nil {
			return nil, err
		}
	}

	sort.Strings(res.Unknown)
	return res, nil
}

func decodeAccounts(raw any, res *Result) error {
	items, ok := raw.([]any)
	if !ok {
		return validationError(&FieldError{Field: "accounts", Err: errors.Newf("expected a list, got %T", raw)})
	}

	accounts := make([]Account, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("accounts[%d]", i)

		m, ok := item.(*Mapping)
		if !ok {
			return validationError(&FieldError{Field: field, Err: errors.Newf("expected a mapping, got %T", item)})
		}

		acct := DefaultAccount()
		var md mapstructure.Metadata
		dec, err := newDecoder(&acct, &md)
		if err != nil {
			return errors.Wrap(err, "creating decoder")
		}
		if err := dec.Decode(m.shallow()); err != nil {
			return validationError(&FieldError{Field: field, Err: err})
		}

		// An absent password keeps the default; a present one, even "",
		// is stored as its digest.
		if _, ok := m.Get("password"); ok {
			if acct.Password != "" && !auth.IsDigest(acct.Password) {
				res.Hashed = append(res.Hashed, field+".password")
			}
			acct.SetPassword(acct.Password)
		}

		for _, key := range md.Unused {
			res.Unknown = append(res.Unknown, field+"."+key)
		}
		accounts = append(accounts, acct)
	}
	res.Config.Accounts = accounts
	return nil
}

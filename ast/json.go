package ast

import (
	"encoding/json"

	"github.com/poml-lang/poml/source"
)

// JSON renderings carry the node kind, its range, and the public
// fields. They are for tooling output; there is no unmarshaling back.

func (n *Root) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string       `json:"kind"`
		Range    source.Range `json:"range"`
		Children []Node       `json:"children,omitempty"`
	}{n.Kind().String(), n.rng, n.Children})
}

func (n *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string       `json:"kind"`
		Range    source.Range `json:"range"`
		Name     string       `json:"name"`
		Attrs    []*Attribute `json:"attributes,omitempty"`
		Children []Node       `json:"children,omitempty"`
	}{n.Kind().String(), n.rng, n.Name, n.Attrs, n.Children})
}

func (n *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string       `json:"kind"`
		Range   source.Range `json:"range"`
		Name    string       `json:"name"`
		Attrs   []*Attribute `json:"attributes,omitempty"`
		Content *String      `json:"content"`
	}{n.Kind().String(), n.rng, n.Name, n.Attrs, n.Content})
}

func (n *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string       `json:"kind"`
		Range source.Range `json:"range"`
		Value string       `json:"value"`
	}{n.Kind().String(), n.rng, n.Value})
}

func (n *Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string       `json:"kind"`
		Range source.Range `json:"range"`
		Parts []Node       `json:"parts"`
	}{n.Kind().String(), n.rng, n.Parts})
}

func (n *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string       `json:"kind"`
		Range source.Range `json:"range"`
		Expr  *String      `json:"expr"`
	}{n.Kind().String(), n.rng, n.Expr})
}

func (n *ForIterator) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string       `json:"kind"`
		Range      source.Range `json:"range"`
		Iterator   *String      `json:"iterator"`
		Collection *String      `json:"collection"`
	}{n.Kind().String(), n.rng, n.Iterator, n.Collection})
}

func (n *Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string       `json:"kind"`
		Range source.Range `json:"range"`
		Name  *String      `json:"name"`
		Value Node         `json:"value,omitempty"`
	}{n.Kind().String(), n.rng, n.Name, n.Value})
}

func (n *Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string       `json:"kind"`
		Range source.Range `json:"range"`
		Text  string       `json:"text"`
	}{n.Kind().String(), n.rng, n.Text})
}

func (n *Pragma) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string       `json:"kind"`
		Range   source.Range `json:"range"`
		Name    *String      `json:"name"`
		Options []*String    `json:"options,omitempty"`
	}{n.Kind().String(), n.rng, n.Name, n.Options})
}

package nature

import "encoding/json"

// document is the tagged JSON form shared by every Nature.
type document struct {
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name,omitempty"`
	Context   *Context `json:"context,omitempty"`
	Elem      Nature   `json:"elem,omitempty"`
	Key       Nature   `json:"key,omitempty"`
	Value     Nature   `json:"value,omitempty"`
	Inner     Nature   `json:"inner,omitempty"`
	Items     []Nature `json:"items,omitempty"`
	Args      []Nature `json:"args,omitempty"`
	Output    Nature   `json:"output,omitempty"`
	Async     bool     `json:"async,omitempty"`
	Flat      bool     `json:"flat,omitempty"`
	Type      Nature   `json:"type,omitempty"`
	Signature Nature   `json:"signature,omitempty"`
}

func ctxPtr(c Context) *Context {
	if c.IsZero() {
		return nil
	}
	c = c.Clone()
	return &c
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindPrimitive, Name: p.String()})
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindRef, Name: string(r)})
}

func (v *Vec) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindVec, Elem: v.elem})
}

func (m *HashMap) MarshalJSON() ([]byte, error) {
	doc := document{Kind: KindHashMap, Value: m.value}
	if m.key != nil {
		doc.Key = *m.key
	}
	return json.Marshal(doc)
}

func (o *Option) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindOption, Inner: o.inner})
}

func (t *Tuple) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindTuple, Items: t.elems})
}

func (f *Func) MarshalJSON() ([]byte, error) {
	args := make([]Nature, 0, len(f.args))
	for _, a := range f.args {
		args = append(args, a)
	}
	return json.Marshal(document{Kind: KindFunc, Args: args, Output: f.out, Async: f.async})
}

func (s *Struct) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindStruct, Name: s.name, Context: ctxPtr(s.ctx), Items: s.members})
}

func (e *Enum) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindEnum, Name: e.name, Context: ctxPtr(e.ctx), Items: e.variants})
}

func (v *EnumVariant) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindEnumVariant, Name: v.name, Items: v.values, Flat: v.flat})
}

func (f *NamedFunc) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindNamedFunc, Name: f.name, Context: ctxPtr(f.ctx), Signature: f.sig})
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindField, Name: f.name, Type: f.typ})
}

func (a *FuncArg) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Kind: KindFuncArg, Name: a.name, Type: a.typ})
}

package binding

// Builder accumulates binding records in declaration order.
//
// A Builder is used by a single compile pass and is not safe for
// concurrent use.
type Builder struct {
	records []Record
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{records: make([]Record, 0)}
}

// Append validates a binding declaration and adds one record to the batch.
//
// Elements of context that are []any are spliced into the predicate list
// one level deep; every other element is appended as is. args applies to
// single actions only.
func (b *Builder) Append(keys []string, action Action, args *Args, context ...any) error {
	if len(keys) == 0 {
		return &ShapeError{Message: MsgKeys}
	}
	for _, k := range keys {
		if k == "" {
			return &ShapeError{Message: MsgKeys}
		}
	}

	rec := Record{
		Keys: append([]string(nil), keys...),
	}

	if action.IsComposite() {
		if args.Len() > 0 {
			return &ShapeError{Message: MsgArgs}
		}
		rec.Command = MultiCommand
		rec.Args = NewArgs().Set(CommandsArg, action.Commands())
	} else {
		if action.Name() == "" {
			return &ShapeError{Message: MsgAction}
		}
		rec.Command = action.Name()
		if args.Len() > 0 {
			rec.Args = args
		}
	}

	if preds := flatten(context); len(preds) > 0 {
		rec.Context = preds
	}

	b.records = append(b.records, rec)
	return nil
}

// flatten splices nested lists one level deep.
func flatten(items []any) []any {
	var out []any
	for _, item := range items {
		if list, ok := item.([]any); ok {
			out = append(out, list...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// Records returns the accumulated records in declaration order.
func (b *Builder) Records() []Record {
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Len returns the number of records.
func (b *Builder) Len() int {
	return len(b.records)
}

// Reset discards all records.
func (b *Builder) Reset() {
	b.records = b.records[:0]
}

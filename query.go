package cari

// Query is a full-text query plus search parameters such as hitsPerPage or
// filters. The zero value matches everything.
type Query struct {
	Text   string
	Params map[string]any
}

// NewQuery returns a query for text with no parameters.
func NewQuery(text string) Query {
	return Query{Text: text}
}

// Set returns a copy of q with parameter name set to value.
func (q Query) Set(name string, value any) Query {
	params := make(map[string]any, len(q.Params)+1)
	for k, v := range q.Params {
		params[k] = v
	}
	params[name] = value
	q.Params = params
	return q
}

// Record encodes the query as a request body.
func (q Query) Record() Record {
	r := make(Record, len(q.Params)+1)
	for k, v := range q.Params {
		r[k] = v
	}
	r["query"] = q.Text
	return r
}

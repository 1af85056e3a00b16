package model

// QueryResponse is the tabular result returned by the query endpoint.
type QueryResponse struct {
	Tables []Table `json:"tables"`
}

type Table struct {
	Name    string   `json:"name,omitempty"`
	Columns []Column `json:"columns,omitempty"`
	Rows    [][]Cell `json:"rows"`
}

// FirstTable returns the first result table, or nil when the response has none.
func (r *QueryResponse) FirstTable() *Table {
	if r == nil || len(r.Tables) == 0 {
		return nil
	}
	return &r.Tables[0]
}
